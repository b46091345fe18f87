package blacklist

// Default returns the built-in blacklist shipped with the input template.
func Default() *Set {
	return New(defaultRules()...)
}

func defaultRules() []Rule {
	rules := []Rule{
		{Affiliate: "[135]bidderdesk_xdj_1"},
		{Affiliate: "[144]bidderdesk_xdj_2"},
		{Affiliate: "[113]ioger"},
		{Affiliate: "[108]Baidu (Hong Kong) Limited"},
		{Affiliate: "[128]shareit"},

		{Advertiser: "[110008]Shareit"},
		{Advertiser: "[110037]Shareit_xdj"},
		{Advertiser: "[110040]Ricefruit"},
		{Advertiser: "[110047]Jolibox_Appnext_Online_New"},
		{Advertiser: "[110049]AutumnAds"},
		{Advertiser: "[110028]mobpower"},
		{Advertiser: "[110016]Imxbidding"},
	}

	pairs := []struct {
		advertiser string
		affiliates []string
	}{
		{"[110045]dolphine", []string{"[134]ioger_xdj", "[136]Bytemobi_xdj", "[142]magicbeans_xdj"}},
		{"[110021]flymobi", []string{"[134]ioger_xdj", "[142]magicbeans_xdj", "[136]Bytemobi_xdj"}},
		{"[110022]imxbidding_xdj", []string{"[114]imxbidding", "[157]imxbidding_xdj"}},
		{"[110059]Flowbox", []string{"[111]flowbox_xdj"}},
		{"[110054]acshare", []string{"[155]acshare_xdj"}},
	}
	for _, p := range pairs {
		for _, aff := range p.affiliates {
			rules = append(rules, Rule{Advertiser: p.advertiser, Affiliate: aff})
		}
	}
	return rules
}
