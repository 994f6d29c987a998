package notion

import (
	"github.com/jomei/notionapi"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
)

// buildFilter converts a domain filter into the query filter of the database API.
// It returns nil for an empty filter.
func buildFilter(f model.Filter) notionapi.Filter {
	var filters []notionapi.Filter

	if f.Status != "" {
		filters = append(filters, &notionapi.PropertyFilter{
			Property: PropStatus,
			Select: &notionapi.SelectFilterCondition{
				Equals: f.Status,
			},
		})
	}

	if !f.CreatedOnOrAfter.IsZero() {
		onOrAfter := notionapi.Date(f.CreatedOnOrAfter)
		filters = append(filters, &notionapi.TimestampFilter{
			Timestamp: "created_time",
			CreatedTime: &notionapi.DateFilterCondition{
				OnOrAfter: &onOrAfter,
			},
		})
	}

	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return notionapi.AndCompoundFilter(filters)
	}
}
