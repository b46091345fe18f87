// Package notify delivers finished analysis reports: a rendered digest by
// e-mail and the action items over Redis.
package notify

import (
	"fmt"
	"sort"

	"github.com/osteele/liquid"
	"github.com/shopspring/decimal"

	"github.com/ignite/offer-monitor/internal/engine"
)

// digestActionLimit caps the action rows listed in a digest.
const digestActionLimit = 50

const subjectTemplate = `Offer analysis {{ latest }}: {{ action_count }} action item{% if action_count != 1 %}s{% endif %}`

const textTemplate = `Offer analysis for {{ latest }} (compared with {{ second }}), rule set {{ rule_set }}.
Offers analysed: {{ offer_count }}. Action items: {{ action_count }}.
{% for r in by_rule %}
Rule {{ r.rule }} ({{ r.count }}): {{ r.text }}{% endfor %}
{% for a in actions %}
- offer {{ a.offer_id }} {{ a.advertiser }} {{ a.geo }}/{{ a.app_id }}{% if a.affiliate != "" %} via {{ a.affiliate }}{% endif %}: {{ a.action_text }} (revenue {{ a.latest_revenue | money }}){% endfor %}{% if truncated > 0 %}
...and {{ truncated }} more in the attached report.{% endif %}
Run {{ run_id }}
`

const htmlTemplate = `<h2>Offer analysis {{ latest }}</h2>
<p>Compared with {{ second }} &middot; rule set {{ rule_set }} &middot; {{ offer_count }} offers &middot; {{ action_count }} action items</p>
<ul>{% for r in by_rule %}<li><b>Rule {{ r.rule }}</b> ({{ r.count }}): {{ r.text | escape }}</li>{% endfor %}</ul>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Offer</th><th>Advertiser</th><th>GEO</th><th>App</th><th>Affiliate</th><th>Action</th><th>Latest revenue</th><th>Headroom</th></tr>
{% for a in actions %}<tr><td>{{ a.offer_id }}</td><td>{{ a.advertiser | escape }}</td><td>{{ a.geo }}</td><td>{{ a.app_id | escape }}</td><td>{{ a.affiliate | escape }}</td><td>{{ a.action_text | escape }}</td><td>{{ a.latest_revenue | money }}</td><td>{{ a.budget_headroom }}</td></tr>
{% endfor %}</table>
{% if truncated > 0 %}<p>...and {{ truncated }} more in the attached report.</p>{% endif %}
<p style="color:#888">Run {{ run_id }}</p>
`

// Message is a rendered digest.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Digest renders report summaries with Liquid templates.
type Digest struct {
	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template
}

// NewDigest compiles the built-in digest templates.
func NewDigest() (*Digest, error) {
	eng := liquid.NewEngine()
	// Two-decimal money: {{ revenue | money }}
	eng.RegisterFilter("money", func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(2)
	})

	d := &Digest{}
	for _, t := range []struct {
		dst **liquid.Template
		src string
	}{
		{&d.subject, subjectTemplate},
		{&d.text, textTemplate},
		{&d.html, htmlTemplate},
	} {
		tpl, err := eng.ParseString(t.src)
		if err != nil {
			return nil, fmt.Errorf("parse digest template: %w", err)
		}
		*t.dst = tpl
	}
	return d, nil
}

// Render builds the digest for a report.
func (d *Digest) Render(rep *engine.Report) (Message, error) {
	bindings := digestBindings(rep)

	var msg Message
	var err error
	if msg.Subject, err = d.subject.RenderString(bindings); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if msg.Text, err = d.text.RenderString(bindings); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	if msg.HTML, err = d.html.RenderString(bindings); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	return msg, nil
}

func digestBindings(rep *engine.Report) map[string]interface{} {
	counts := rep.ActionsByRule()
	rules := make([]int, 0, len(counts))
	for r := range counts {
		rules = append(rules, r)
	}
	sort.Ints(rules)

	byRule := make([]map[string]interface{}, 0, len(rules))
	rs, err := engine.RuleSetByVersion(rep.RuleSet)
	if err != nil {
		rs, _ = engine.RuleSetByVersion(engine.RuleSetV1)
	}
	for _, r := range rules {
		byRule = append(byRule, map[string]interface{}{
			"rule":  r,
			"count": counts[r],
			"text":  rs.Text(r),
		})
	}

	shown := rep.Actions
	if len(shown) > digestActionLimit {
		shown = shown[:digestActionLimit]
	}
	actions := make([]map[string]interface{}, 0, len(shown))
	for _, a := range shown {
		actions = append(actions, map[string]interface{}{
			"offer_id":        a.OfferID,
			"advertiser":      a.Advertiser,
			"geo":             a.GEO,
			"app_id":          a.AppID,
			"affiliate":       a.Affiliate,
			"action_text":     a.ActionText,
			"latest_revenue":  a.Latest.Revenue,
			"budget_headroom": a.BudgetHeadroom,
		})
	}

	return map[string]interface{}{
		"run_id":       rep.RunID,
		"rule_set":     rep.RuleSet,
		"latest":       rep.LatestLabel(),
		"second":       rep.SecondLabel(),
		"offer_count":  len(rep.Offers),
		"action_count": len(rep.Actions),
		"by_rule":      byRule,
		"actions":      actions,
		"truncated":    len(rep.Actions) - len(shown),
	}
}
