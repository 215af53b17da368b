package catalog

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// ExportMetadata heads a JSON export.
type ExportMetadata struct {
	FetchedAt      time.Time `json:"fetchedAt"`
	TotalWorkshops int       `json:"totalWorkshops"`
	TotalEvents    int       `json:"totalEvents"`
	Source         string    `json:"source"`
	GeneratedBy    string    `json:"generatedBy"`
}

// Export is the static snapshot format published for pages that cannot
// call the service.
type Export struct {
	Metadata  ExportMetadata   `json:"metadata"`
	Workshops []model.Workshop `json:"workshops"`
	Events    []model.Event    `json:"events"`
}

// ExportJSON writes both lanes, loaded under the usual freshness rules,
// as an indented Export document.
func (c *TieredCache) ExportJSON(ctx context.Context, w io.Writer) error {
	cat, err := c.catalog.load(ctx)
	if err != nil {
		return err
	}
	ev, err := c.events.load(ctx)
	if err != nil {
		return err
	}
	doc := Export{
		Metadata: ExportMetadata{
			FetchedAt:      c.now().UTC(),
			TotalWorkshops: len(cat.Data),
			TotalEvents:    len(ev.Data),
			Source:         "Google Sheets API",
			GeneratedBy:    "workshop-booking",
		},
		Workshops: cat.Data,
		Events:    ev.Data,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
