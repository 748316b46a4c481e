package versions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
	"github.com/lexhold/lexhold/internal/services/similarity"
)

// memoryStore is an in-memory DocumentStorage plus VersionStorage for chain tests
type memoryStore struct {
	docs          map[string]*models.Document
	records       []*models.DocumentVersion
	failSupersede bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string]*models.Document)}
}

func (m *memoryStore) add(docs ...*models.Document) {
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
}

func (m *memoryStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := m.docs[id]; ok {
		return doc, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) InsertCurrentUnique(ctx context.Context, doc *models.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	if _, ok := m.docs[doc.ID]; !ok {
		return interfaces.ErrNotFound
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryStore) CurrentByHash(ctx context.Context, matterID, sha256 string) (*models.Document, error) {
	for _, doc := range m.docs {
		if doc.MatterID == matterID && doc.SHA256 == sha256 && doc.IsCurrentVersion {
			return doc, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) CurrentWithText(ctx context.Context, matterID string) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range m.docs {
		if doc.MatterID == matterID && doc.IsCurrentVersion && doc.ExtractedText != "" {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStore) ChildOf(ctx context.Context, parentID string, versionNumber int) (*models.Document, error) {
	for _, doc := range m.docs {
		if doc.ParentDocumentID == parentID && doc.VersionNumber == versionNumber {
			return doc, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) ByMatter(ctx context.Context, matterID string) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range m.docs {
		if doc.MatterID == matterID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStore) Supersede(ctx context.Context, old, successor *models.Document, record *models.DocumentVersion) error {
	if m.failSupersede {
		return errors.New("storage unavailable")
	}
	m.docs[old.ID] = old
	m.docs[successor.ID] = successor
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) UpdateGroupMetadata(ctx context.Context, docs []*models.Document) error {
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
	return nil
}

func (m *memoryStore) DeleteByMatter(ctx context.Context, matterID string) error {
	for id, doc := range m.docs {
		if doc.MatterID == matterID {
			delete(m.docs, id)
		}
	}
	return nil
}

func (m *memoryStore) CountDocuments(ctx context.Context) (int, error) {
	return len(m.docs), nil
}

// VersionStorage

func (m *memoryStore) Append(ctx context.Context, record *models.DocumentVersion) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) ListByDocument(ctx context.Context, documentID string) ([]*models.DocumentVersion, error) {
	var out []*models.DocumentVersion
	for _, record := range m.records {
		if record.DocumentID == documentID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteByDocuments(ctx context.Context, documentIDs []string) error {
	return nil
}

// lengthOnlyScorer makes similarity exactly len(min)/len(max), so change-type
// boundaries are testable with plain string lengths
func lengthOnlyScorer() *similarity.Scorer {
	lengthOnly := similarity.WeightProfile{Length: 1.0}
	return similarity.NewScorer(similarity.Options{
		LengthThreshold: 1000,
		Long:            lengthOnly,
		Short:           lengthOnly,
	}, nil)
}

func newTestService(store *memoryStore) interfaces.VersionService {
	return NewService(store, store, lengthOnlyScorer(), common.GetLogger())
}

func chainOf(n int) []*models.Document {
	docs := make([]*models.Document, n)
	for i := 0; i < n; i++ {
		docs[i] = &models.Document{
			ID:            "doc_" + string(rune('a'+i)),
			MatterID:      "mat_1",
			VersionNumber: i + 1,
		}
		if i > 0 {
			docs[i].ParentDocumentID = docs[i-1].ID
		}
	}
	docs[n-1].IsCurrentVersion = true
	return docs
}

func TestCreateNewVersionBuildsSuccessor(t *testing.T) {
	store := newMemoryStore()
	existing := &models.Document{
		ID:               "doc_a",
		MatterID:         "mat_1",
		Type:             models.DocTypePDF,
		Title:            "Settlement Agreement",
		FileName:         "settlement.pdf",
		SHA256:           "old-hash",
		ExtractedText:    strings.Repeat("x", 1000),
		Author:           "Jane Smith",
		Tags:             []string{"settlement"},
		VersionNumber:    1,
		IsCurrentVersion: true,
	}
	store.add(existing)
	svc := newTestService(store)

	successor, err := svc.CreateNewVersion(context.Background(), existing, interfaces.VersionInput{
		FilePath: "/store/mat_1/doc_b_settlement.pdf",
		FileSize: 2048,
		Text:     strings.Repeat("x", 960),
		SHA256:   "new-hash",
		MD5:      "new-md5",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, successor.VersionNumber)
	assert.Equal(t, "doc_a", successor.ParentDocumentID)
	assert.True(t, successor.IsCurrentVersion)
	assert.False(t, existing.IsCurrentVersion)

	// Stable metadata carries forward, content fields are the new file's
	assert.Equal(t, "Jane Smith", successor.Author)
	assert.Equal(t, []string{"settlement"}, successor.Tags)
	assert.Equal(t, "new-hash", successor.SHA256)
	assert.Equal(t, int64(2048), successor.FileSize)

	require.Len(t, store.records, 1)
	assert.Equal(t, successor.ID, store.records[0].DocumentID)
	assert.Equal(t, 2, store.records[0].VersionNumber)
}

func TestCreateNewVersionChangeTypes(t *testing.T) {
	tests := []struct {
		name       string
		inputLen   int
		sameHash   bool
		changeType string
	}{
		{"identical content is a duplicate", 1000, true, models.ChangeDuplicate},
		{"trivial change is a correction", 990, false, models.ChangeCorrection},
		{"small change is a revision", 950, false, models.ChangeRevision},
		{"substantial change is an update", 900, false, models.ChangeUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			existing := &models.Document{
				ID:               "doc_a",
				MatterID:         "mat_1",
				SHA256:           "hash-a",
				ExtractedText:    strings.Repeat("x", 1000),
				VersionNumber:    1,
				IsCurrentVersion: true,
			}
			store.add(existing)
			svc := newTestService(store)

			input := interfaces.VersionInput{
				Text:   strings.Repeat("y", tt.inputLen),
				SHA256: "hash-b",
			}
			if tt.sameHash {
				input.SHA256 = "hash-a"
			}

			_, err := svc.CreateNewVersion(context.Background(), existing, input)
			require.NoError(t, err)

			require.Len(t, store.records, 1)
			assert.Equal(t, tt.changeType, store.records[0].ChangeType)
			assert.Equal(t, !tt.sameHash, store.records[0].ContentChanged)
		})
	}
}

func TestCreateNewVersionRejectsSuperseded(t *testing.T) {
	store := newMemoryStore()
	old := &models.Document{ID: "doc_a", VersionNumber: 1, IsCurrentVersion: false}
	store.add(old)
	svc := newTestService(store)

	_, err := svc.CreateNewVersion(context.Background(), old, interfaces.VersionInput{SHA256: "h"})
	assert.Error(t, err)
}

func TestCreateNewVersionRestoresFlagOnFailure(t *testing.T) {
	store := newMemoryStore()
	store.failSupersede = true
	existing := &models.Document{
		ID:               "doc_a",
		SHA256:           "hash-a",
		VersionNumber:    1,
		IsCurrentVersion: true,
	}
	store.add(existing)
	svc := newTestService(store)

	_, err := svc.CreateNewVersion(context.Background(), existing, interfaces.VersionInput{SHA256: "hash-b"})
	require.Error(t, err)
	assert.True(t, existing.IsCurrentVersion)
}

func TestChainForOrdersByVersion(t *testing.T) {
	store := newMemoryStore()
	docs := chainOf(5)
	store.add(docs...)
	svc := newTestService(store)

	// Resolving from any member returns the same full chain
	for _, member := range docs {
		chain, err := svc.ChainFor(context.Background(), member.ID)
		require.NoError(t, err)
		require.Len(t, chain, 5)
		for i, doc := range chain {
			assert.Equal(t, i+1, doc.VersionNumber)
		}
	}
}

func TestChainForDetectsCycle(t *testing.T) {
	store := newMemoryStore()
	a := &models.Document{ID: "doc_a", VersionNumber: 1, ParentDocumentID: "doc_b"}
	b := &models.Document{ID: "doc_b", VersionNumber: 2, ParentDocumentID: "doc_a"}
	store.add(a, b)
	svc := newTestService(store)

	_, err := svc.ChainFor(context.Background(), "doc_a")
	assert.ErrorIs(t, err, ErrChainCorrupted)
}

func TestChainForDanglingParentIsRoot(t *testing.T) {
	store := newMemoryStore()
	orphan := &models.Document{
		ID:               "doc_b",
		VersionNumber:    2,
		ParentDocumentID: "doc_gone",
		IsCurrentVersion: true,
	}
	store.add(orphan)
	svc := newTestService(store)

	chain, err := svc.ChainFor(context.Background(), "doc_b")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "doc_b", chain[0].ID)
}

func TestCurrentVersionFromSupersededMember(t *testing.T) {
	store := newMemoryStore()
	docs := chainOf(3)
	store.add(docs...)
	svc := newTestService(store)

	current, err := svc.CurrentVersion(context.Background(), docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, docs[2].ID, current.ID)
}

func TestCanonicalVersionFallsBackToCurrent(t *testing.T) {
	store := newMemoryStore()
	docs := chainOf(2)
	store.add(docs...)
	svc := newTestService(store)

	// No canonical marker: resolve the current version
	resolved, err := svc.CanonicalVersion(context.Background(), docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, docs[1].ID, resolved.ID)
}

func TestCanonicalVersionFollowsMarker(t *testing.T) {
	store := newMemoryStore()
	canonical := &models.Document{ID: "doc_win", VersionNumber: 1, IsCurrentVersion: true}
	member := &models.Document{ID: "doc_dup", VersionNumber: 1, IsCurrentVersion: true}
	member.MarkCanonical("doc_win", time.Now())
	store.add(canonical, member)
	svc := newTestService(store)

	resolved, err := svc.CanonicalVersion(context.Background(), "doc_dup")
	require.NoError(t, err)
	assert.Equal(t, "doc_win", resolved.ID)
}
