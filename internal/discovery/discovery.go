// Package discovery catalogues candidate air quality data sources for
// Brasília/DF, ranks them, and produces per-source extraction plans.
//
// The candidate list is deterministic: it was assembled from official
// documents during exploratory research rather than live crawling, which
// keeps discovery reproducible. Extending it means appending candidates here
// (or integrating a data catalogue such as dados.gov.br later).
package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Metadata carries optional descriptive fields for a candidate.
type Metadata struct {
	RecordCount      int      `json:"record_count,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// Candidate is a discovered data source prior to extraction.
type Candidate struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Agency   string   `json:"agency"`
	Format   string   `json:"format"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Plan describes how a source should be extracted.
type Plan struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Pagination  bool   `json:"pagination"`
	Description string `json:"description"`
}

// officialAgencies get the officiality boost during ranking.
var officialAgencies = map[string]bool{
	"ibram": true,
	"mma":   true,
}

// Candidates returns the known candidate sources, unranked.
func Candidates() []Candidate {
	return []Candidate{
		{
			ID:     "arcgis_stations",
			Title:  "Estações de monitoramento da qualidade do ar (licenciamento)",
			URL:    "https://onda.ibram.df.gov.br/server/rest/services/Hosted/Estações_de_monitoramento_da_qualidade_do_ar_estabelecidas_por_licenciamento_ambiental/FeatureServer/0",
			Agency: "IBRAM",
			Format: "ArcGIS FeatureLayer",
			Metadata: Metadata{
				RecordCount:      9,
				SupportedFormats: []string{"csv", "geojson"},
			},
		},
		{
			ID:     "monitorar",
			Title:  "MonitorAr (dados em tempo real das estações automáticas)",
			URL:    "https://monitorar.mma.gov.br",
			Agency: "MMA",
			Format: "Web service",
			Metadata: Metadata{
				Description: "Real-time AQI and pollutant concentrations for automatic stations",
			},
		},
	}
}

// Rank scores candidates by officiality (+0.5 for government agencies), open
// format (+0.3 for csv/json/feature-layer), and known coverage (+0.2 when a
// record count is available), returning them sorted by descending score.
// Ties keep their input order.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = score(ranked[i])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func score(c Candidate) float64 {
	s := 0.0
	if officialAgencies[strings.ToLower(c.Agency)] {
		s += 0.5
	}
	format := strings.ToLower(c.Format)
	for _, open := range []string{"csv", "json", "featurelayer"} {
		if strings.Contains(format, open) {
			s += 0.3
			break
		}
	}
	if c.Metadata.RecordCount > 0 {
		s += 0.2
	}
	return s
}

// PlanFor returns the extraction strategy for a candidate.
func PlanFor(c Candidate) Plan {
	switch c.ID {
	case "arcgis_stations":
		return Plan{
			Type:        "arcgis_feature_layer",
			URL:         c.URL,
			Description: "Fetch station metadata via the ArcGIS REST API.",
		}
	case "monitorar":
		return Plan{
			Type:        "monitorar_panel",
			URL:         c.URL,
			Description: "Probe MonitorAr and materialize real-time measurements.",
		}
	default:
		return Plan{Type: "unknown", URL: c.URL}
	}
}

// WriteIndex ranks the candidates and writes them as a JSON index artifact.
func WriteIndex(path string, candidates []Candidate) error {
	ranked := Rank(candidates)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sources index: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
