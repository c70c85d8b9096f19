package query

type ReportEntry struct {
	Request  string `json:"request"`
	TimeInMs int64  `json:"timeInMs"`
	Error    string `json:"error,omitempty"`
}

type Report struct {
	Requests []ReportEntry `json:"requests"`
}

// DomainResult is created fresh per fetch and owned by the caller.
type DomainResult struct {
	DomainName string           `json:"domainName"`
	Total      int64            `json:"total"`
	Results    []map[string]any `json:"results"`
	Report     Report           `json:"report"`
	Errors     []string         `json:"errors"`
}

func NewDomainResult(name string) *DomainResult {
	return &DomainResult{
		DomainName: name,
		Results:    []map[string]any{},
		Report:     Report{Requests: []ReportEntry{}},
		Errors:     []string{},
	}
}

// Failed reports whether any issued statement recorded an error.
func (r *DomainResult) Failed() bool {
	for _, e := range r.Report.Requests {
		if e.Error != "" {
			return true
		}
	}
	return false
}
