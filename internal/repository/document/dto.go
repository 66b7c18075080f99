package document

import (
	"github.com/kailas-cloud/firedoc/internal/db"
	domdoc "github.com/kailas-cloud/firedoc/internal/domain/document"
)

// fromSnapshots hydrates domain documents from store snapshots.
func fromSnapshots(snaps []db.Snapshot) []domdoc.Document {
	docs := make([]domdoc.Document, 0, len(snaps))
	for _, s := range snaps {
		data := s.Data
		if data == nil {
			data = map[string]any{}
		}
		docs = append(docs, domdoc.Reconstruct(s.Collection, s.ID, data))
	}
	return docs
}
