package engine

import "github.com/pkgops/dpm/internal/journal"

// How many journal entries History returns when no limit is given.
const defaultHistoryLimit = 20

// History returns recorded operations, newest first, optionally filtered
// to one package.
func (e *Engine) History(req *HistoryRequest) ([]journal.Entry, error) {
	if e.journal == nil {
		return nil, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	if req.Package != "" {
		entries, err := e.journal.ByPackage(req.Package)
		if err != nil {
			return nil, err
		}
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}
	return e.journal.Recent(limit)
}
