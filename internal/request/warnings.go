package request

import (
	"github.com/iwvelando/mix-optimizer/pkg/validation"
)

// Warnings returns non-fatal findings about the request, such as current
// spend outside a channel's range.
func (r OptimizeRequest) Warnings() []string {
	req := r.Build()
	v := validation.InputValidator{Budget: req.TotalBudget}
	limits := req.CPMs.Tighten(req.Curves, req.Constraints)
	for _, c := range req.Curves {
		bounds := limits.For(c.ID)
		v.Channels = append(v.Channels, validation.ChannelInput{
			Name:    c.Label(),
			Current: req.Current[c.ID],
			Min:     bounds.Min,
			Max:     bounds.Max,
		})
	}
	return v.ValidateAll()
}

// Warnings returns non-fatal findings about the campaigns. Records that fail
// conversion are skipped; CampaignList reports them.
func (r ConstrainedRequest) Warnings() []string {
	v := validation.InputValidator{Budget: r.TotalBudget}
	for _, record := range r.Campaigns {
		c, err := record.Campaign()
		if err != nil {
			continue
		}
		v.Campaigns = append(v.Campaigns, validation.CampaignInput{
			Name:        c.Name,
			SpendMin:    c.SpendMin,
			SpendMax:    c.SpendMax,
			Seasonality: c.EffectiveSeasonality(),
		})
	}
	return v.ValidateAll()
}
