package duplicates

import (
	"context"
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

// fakeDocumentStorage is an in-memory DocumentStorage for service tests
type fakeDocumentStorage struct {
	docs []*models.Document
}

func (f *fakeDocumentStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeDocumentStorage) InsertCurrentUnique(ctx context.Context, doc *models.Document) error {
	for _, existing := range f.docs {
		if existing.MatterID == doc.MatterID && existing.SHA256 == doc.SHA256 && existing.IsCurrentVersion {
			return interfaces.ErrDuplicateDocument
		}
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeDocumentStorage) UpdateDocument(ctx context.Context, doc *models.Document) error {
	for i, existing := range f.docs {
		if existing.ID == doc.ID {
			f.docs[i] = doc
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (f *fakeDocumentStorage) CurrentByHash(ctx context.Context, matterID, sha256 string) (*models.Document, error) {
	for _, doc := range f.docs {
		if doc.MatterID == matterID && doc.SHA256 == sha256 && doc.IsCurrentVersion {
			return doc, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeDocumentStorage) CurrentWithText(ctx context.Context, matterID string) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range f.docs {
		if doc.MatterID == matterID && doc.IsCurrentVersion && doc.ExtractedText != "" {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentStorage) ChildOf(ctx context.Context, parentID string, versionNumber int) (*models.Document, error) {
	for _, doc := range f.docs {
		if doc.ParentDocumentID == parentID && doc.VersionNumber == versionNumber {
			return doc, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeDocumentStorage) ByMatter(ctx context.Context, matterID string) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range f.docs {
		if doc.MatterID == matterID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentStorage) Supersede(ctx context.Context, old, successor *models.Document, record *models.DocumentVersion) error {
	if err := f.UpdateDocument(ctx, old); err != nil {
		return err
	}
	f.docs = append(f.docs, successor)
	return nil
}

func (f *fakeDocumentStorage) UpdateGroupMetadata(ctx context.Context, docs []*models.Document) error {
	for _, doc := range docs {
		if err := f.UpdateDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeDocumentStorage) DeleteByMatter(ctx context.Context, matterID string) error {
	var kept []*models.Document
	for _, doc := range f.docs {
		if doc.MatterID != matterID {
			kept = append(kept, doc)
		}
	}
	f.docs = kept
	return nil
}

func (f *fakeDocumentStorage) CountDocuments(ctx context.Context) (int, error) {
	return len(f.docs), nil
}

func testConfig() *common.IngestionConfig {
	cfg := common.NewDefaultConfig()
	return &cfg.Ingestion
}

// lengthOnlyScorer scores purely by length ratio, which makes similarity
// values exactly controllable from document text lengths
func lengthOnlyScorer() *similarity.Scorer {
	lengthOnly := similarity.WeightProfile{Length: 1.0}
	return similarity.NewScorer(similarity.Options{
		LengthThreshold: 1000,
		Long:            lengthOnly,
		Short:           lengthOnly,
	}, nil)
}

func newTestService(store *fakeDocumentStorage, scorer *similarity.Scorer) interfaces.DuplicateService {
	return NewService(store, scorer, testConfig(), common.GetLogger())
}

func doc(id, matterID, sha, text string, createdAt time.Time) *models.Document {
	return &models.Document{
		ID:               id,
		MatterID:         matterID,
		SHA256:           sha,
		ExtractedText:    text,
		TextLength:       len(text),
		IsCurrentVersion: true,
		CreatedAt:        createdAt,
	}
}

func TestFindExactDuplicate(t *testing.T) {
	base := time.Now()
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_1", "mat_1", "hash-a", "text", base),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	found, err := svc.FindExactDuplicate(context.Background(), "hash-a", "mat_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "doc_1", found.ID)

	// Unknown hash resolves to nil, not an error
	found, err = svc.FindExactDuplicate(context.Background(), "hash-z", "mat_1")
	require.NoError(t, err)
	assert.Nil(t, found)

	// Same hash in another matter is not a duplicate
	found, err = svc.FindExactDuplicate(context.Background(), "hash-a", "mat_2")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindNearDuplicatesShortTextSkipped(t *testing.T) {
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_1", "mat_1", "h1", strings.Repeat("x", 500), time.Now()),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	matches, err := svc.FindNearDuplicates(context.Background(), "too short", "mat_1", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindNearDuplicatesSortedAndFiltered(t *testing.T) {
	base := time.Now()
	// Probe length 1000. Length-only scores: 960/1000=0.96, 980/1000=0.98,
	// 500/1000=0.50 (below the 0.95 threshold)
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_a", "mat_1", "h1", strings.Repeat("a", 960), base),
		doc("doc_b", "mat_1", "h2", strings.Repeat("b", 980), base),
		doc("doc_c", "mat_1", "h3", strings.Repeat("c", 500), base),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	matches, err := svc.FindNearDuplicates(context.Background(), strings.Repeat("p", 1000), "mat_1", "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc_b", matches[0].Document.ID)
	assert.Equal(t, "doc_a", matches[1].Document.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestFindNearDuplicatesExcludesSelf(t *testing.T) {
	base := time.Now()
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_a", "mat_1", "h1", strings.Repeat("a", 1000), base),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	matches, err := svc.FindNearDuplicates(context.Background(), strings.Repeat("a", 1000), "mat_1", "doc_a")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCompareDocumentsHashMatch(t *testing.T) {
	svc := newTestService(&fakeDocumentStorage{}, lengthOnlyScorer())

	a := doc("doc_a", "mat_1", "same", strings.Repeat("a", 100), time.Now())
	b := doc("doc_b", "mat_1", "same", strings.Repeat("a", 100), time.Now())

	cmp := svc.CompareDocuments(a, b)
	assert.True(t, cmp.HashMatch)
	assert.True(t, cmp.ExactDuplicate)
	assert.Equal(t, 1.0, cmp.SimilarityScore)
	assert.True(t, cmp.NearDuplicate)
}

func TestCompareDocumentsMetadataSimilarity(t *testing.T) {
	svc := newTestService(&fakeDocumentStorage{}, lengthOnlyScorer())

	a := &models.Document{ID: "doc_a", Author: "Jane Smith", Type: models.DocTypePDF}
	b := &models.Document{ID: "doc_b", Author: "jane smith", Type: models.DocTypePDF}

	cmp := svc.CompareDocuments(a, b)
	// Author matches case-insensitively, type matches exactly; titles and
	// filenames are unset so they do not contribute
	assert.Equal(t, 1.0, cmp.MetadataSimilarity)

	b.Type = models.DocTypeEmail
	cmp = svc.CompareDocuments(a, b)
	assert.Equal(t, 0.5, cmp.MetadataSimilarity)
}

// Grouping links candidates to the group's seed only. Here B and C both
// clear the threshold against seed A while scoring below it against each
// other, and still land in one group.
func TestFindDuplicateGroupsSingleLinkToSeed(t *testing.T) {
	base := time.Now()
	// Length-only scores: sim(A,B)=96/100=0.96, sim(A,C)=100/105~0.952,
	// sim(B,C)=96/105~0.914
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_a", "mat_1", "h1", strings.Repeat("a", 100), base),
		doc("doc_b", "mat_1", "h2", strings.Repeat("b", 96), base.Add(time.Minute)),
		doc("doc_c", "mat_1", "h3", strings.Repeat("c", 105), base.Add(2*time.Minute)),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	groups, err := svc.FindDuplicateGroups(context.Background(), "mat_1", 0.95)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
	assert.Equal(t, "doc_a", groups[0][0].ID)
}

func TestFindDuplicateGroupsOnlyMultiMemberGroups(t *testing.T) {
	base := time.Now()
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_a", "mat_1", "h1", strings.Repeat("a", 100), base),
		doc("doc_b", "mat_1", "h2", strings.Repeat("b", 30), base.Add(time.Minute)),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	groups, err := svc.FindDuplicateGroups(context.Background(), "mat_1", 0.95)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestFindDuplicateGroupsDefaultThreshold(t *testing.T) {
	base := time.Now()
	store := &fakeDocumentStorage{docs: []*models.Document{
		doc("doc_a", "mat_1", "h1", strings.Repeat("a", 1000), base),
		doc("doc_b", "mat_1", "h2", strings.Repeat("b", 990), base.Add(time.Minute)),
	}}
	svc := newTestService(store, lengthOnlyScorer())

	// Threshold 0 falls back to the configured near-duplicate threshold
	groups, err := svc.FindDuplicateGroups(context.Background(), "mat_1", 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)
}
