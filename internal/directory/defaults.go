package directory

// Default returns a fresh copy of the built-in traffic-type directory.
func Default() *Directory {
	return New(defaultAdvertisers(), defaultAffiliates())
}

func defaultAdvertisers() []Entry {
	return []Entry{
		NewEntry("[110001]APPNEXT", "xdj/inapp"),
		NewEntry("[110006]APPNEXT-ONLINE", "xdj/inapp"),
		NewEntry("[110035]Jolibox_Appnext_Online", "xdj/inapp"),
		NewEntry("[110047]Jolibox_Appnext_Online_New", "xdj/inapp"),
		NewEntry("[110021]flymobi", "xdj"),
		NewEntry("[110045]dolphine", "xdj"),
		NewEntry("[110029]mobpower_xdj", "xdj"),
		NewEntry("[110028]mobpower", "xdj/inapp"),
		NewEntry("[110048]alto", "xdj"),
		NewEntry("[110022]imxbidding_xdj", "xdj"),
		NewEntry("[110016]Imxbidding", "xdj/inapp"),
		NewEntry("[110031]mobvista", "xdj"),
		NewEntry("[110010]Leapmob", "xdj"),
		NewEntry("[110036]Viking", "xdj"),
		NewEntry("[110020]cchange", "xdj"),
		NewEntry("[110023]bidmatrix", "xdj"),
		NewEntry("[110012]Smartconnect", "xdj/inapp"),
		NewEntry("[110050]Joymobi_new", "xdj/inapp"),
		NewEntry("[110039]Seanear", "xdj"),
		NewEntry("[110025]melodong", "xdj"),
		NewEntry("[110008]Shareit", "xdj"),
		NewEntry("[110037]Shareit_xdj", "xdj"),
		NewEntry("[110019]Bytemobi", "xdj/inapp"),
		NewEntry("[110017]Gridads", "xdj"),
		NewEntry("[110034]Joymobi", "xdj"),
		NewEntry("[110051]Elementallink", "xdj"),
		NewEntry("[110040]Ricefruit", "xdj"),
		NewEntry("[110049]AutumnAds", "xdj"),
		NewEntry("[110011]Versemedia", "xdj"),
		NewEntry("[110054]acshare", "xdj"),
		NewEntry("[110059]Flowbox", "xdj"),
	}
}

func defaultAffiliates() []Entry {
	return []Entry{
		NewEntry("[101]Melodong", "inapp"),
		NewEntry("[106]wldon", "inapp"),
		NewEntry("[131]wldon_new", "inapp"),
		NewEntry("[124]wldon_xdj", "xdj"),
		NewEntry("[115]synjoy", "inapp"),
		NewEntry("[158]synjoy_xdj", "xdj"),
		NewEntry("[104]versemedia", "inapp"),
		NewEntry("[122]melodong_xdj", "xdj"),
		NewEntry("[111]flowbox_xdj", "xdj"),
		NewEntry("[114]imxbidding", "inapp"),
		NewEntry("[157]imxbidding_xdj", "xdj"),
		NewEntry("[117]ioger_own", "inapp"),
		NewEntry("[139]Versemedia_xdj", "xdj"),
		NewEntry("[143]Alto_xdj", "xdj"),
		NewEntry("[137]Seanear_xdj", "xdj"),
		NewEntry("[107]zhizhen", "inapp"),
		NewEntry("[120]magicbeans", "inapp"),
		NewEntry("[142]magicbeans_xdj", "xdj"),
		NewEntry("[113]ioger", "inapp"),
		NewEntry("[123]bytemobi", "inapp"),
		NewEntry("[134]ioger_xdj", "xdj"),
		NewEntry("[126]seanear", "inapp"),
		NewEntry("[141]Joymobi_xdj", "xdj"),
		NewEntry("[136]Bytemobi_xdj", "xdj"),
		NewEntry("[132]Viking_xdj", "xdj"),
		NewEntry("[155]acshare_xdj", "xdj"),
		NewEntry("[144]bidderdesk_xdj_2", "xdj"),
		NewEntry("[135]bidderdesk_xdj_1", "xdj"),
	}
}
