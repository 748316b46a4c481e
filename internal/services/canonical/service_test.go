package canonical

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// groupWriter captures UpdateGroupMetadata calls and serves lookups from an
// optional in-memory map; other storage methods are unused by the selection
// paths under test
type groupWriter struct {
	docs    map[string]*models.Document
	written [][]*models.Document
}

func (g *groupWriter) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := g.docs[id]; ok {
		return doc, nil
	}
	return nil, interfaces.ErrNotFound
}
func (g *groupWriter) InsertCurrentUnique(ctx context.Context, doc *models.Document) error { return nil }
func (g *groupWriter) UpdateDocument(ctx context.Context, doc *models.Document) error      { return nil }
func (g *groupWriter) CurrentByHash(ctx context.Context, matterID, sha256 string) (*models.Document, error) {
	return nil, interfaces.ErrNotFound
}
func (g *groupWriter) CurrentWithText(ctx context.Context, matterID string) ([]*models.Document, error) {
	return nil, nil
}
func (g *groupWriter) ChildOf(ctx context.Context, parentID string, versionNumber int) (*models.Document, error) {
	return nil, interfaces.ErrNotFound
}
func (g *groupWriter) ByMatter(ctx context.Context, matterID string) ([]*models.Document, error) {
	return nil, nil
}
func (g *groupWriter) Supersede(ctx context.Context, old, successor *models.Document, record *models.DocumentVersion) error {
	return nil
}
func (g *groupWriter) UpdateGroupMetadata(ctx context.Context, docs []*models.Document) error {
	g.written = append(g.written, docs)
	return nil
}
func (g *groupWriter) DeleteByMatter(ctx context.Context, matterID string) error { return nil }
func (g *groupWriter) CountDocuments(ctx context.Context) (int, error)           { return 0, nil }

func testConfig() *common.CanonicalConfig {
	cfg := common.NewDefaultConfig()
	return &cfg.Canonical
}

func newTestService(store *groupWriter) *Service {
	svc := NewService(store, nil, nil, testConfig(), common.GetLogger())
	// Freeze the clock so recency tiers are deterministic
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc
}

func at(daysAgo int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
}

func TestSelectCanonicalEmptyGroup(t *testing.T) {
	svc := newTestService(&groupWriter{})

	_, err := svc.SelectCanonical(nil)
	assert.Error(t, err)
}

func TestSelectCanonicalSingleMember(t *testing.T) {
	svc := newTestService(&groupWriter{})
	only := &models.Document{ID: "doc_a"}

	winner, err := svc.SelectCanonical([]*models.Document{only})
	require.NoError(t, err)
	assert.Same(t, only, winner)
}

func TestSelectCanonicalPrefersQualityAndCompleteness(t *testing.T) {
	svc := newTestService(&groupWriter{})

	strong := &models.Document{
		ID:               "doc_strong",
		ProcessingStatus: models.StatusCompleted,
		ExtractedText:    string(make([]byte, 20000)),
		FileSize:         2 * 1024 * 1024,
		Author:           "Jane Smith",
		Title:            "Contract",
		IngestedAt:       at(10),
	}
	weak := &models.Document{
		ID:               "doc_weak",
		ProcessingStatus: models.StatusNeedsReview,
		ExtractedText:    "short",
		FileSize:         1024,
		IngestedAt:       at(10),
	}

	winner, err := svc.SelectCanonical([]*models.Document{weak, strong})
	require.NoError(t, err)
	assert.Equal(t, "doc_strong", winner.ID)
}

func TestSelectCanonicalPrefersRecent(t *testing.T) {
	svc := newTestService(&groupWriter{})

	older := &models.Document{
		ID:               "doc_old",
		ProcessingStatus: models.StatusCompleted,
		ExtractedText:    string(make([]byte, 5000)),
		FileSize:         200 * 1024,
		IngestedAt:       at(400),
	}
	newer := &models.Document{
		ID:               "doc_new",
		ProcessingStatus: models.StatusCompleted,
		ExtractedText:    string(make([]byte, 5000)),
		FileSize:         200 * 1024,
		IngestedAt:       at(5),
	}

	winner, err := svc.SelectCanonical([]*models.Document{older, newer})
	require.NoError(t, err)
	assert.Equal(t, "doc_new", winner.ID)
}

func TestSelectCanonicalTieKeepsFirstMember(t *testing.T) {
	svc := newTestService(&groupWriter{})

	member := func(id string) *models.Document {
		return &models.Document{
			ID:               id,
			ProcessingStatus: models.StatusCompleted,
			ExtractedText:    "identical extracted text for every member of this group",
			FileSize:         4096,
			IngestedAt:       at(3),
		}
	}
	group := []*models.Document{member("doc_1"), member("doc_2"), member("doc_3")}

	winner, err := svc.SelectCanonical(group)
	require.NoError(t, err)
	assert.Equal(t, "doc_1", winner.ID)
}

func TestSelectCanonicalIsDeterministic(t *testing.T) {
	svc := newTestService(&groupWriter{})

	group := []*models.Document{
		{ID: "doc_a", ProcessingStatus: models.StatusCompleted, ExtractedText: string(make([]byte, 2000)), IngestedAt: at(20)},
		{ID: "doc_b", ProcessingStatus: models.StatusNeedsReview, ExtractedText: string(make([]byte, 500)), IngestedAt: at(200)},
		{ID: "doc_c", ProcessingStatus: models.StatusCompleted, ExtractedText: string(make([]byte, 80000)), FileSize: 20 * 1024 * 1024, IngestedAt: at(2)},
	}

	first, err := svc.SelectCanonical(group)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := svc.SelectCanonical(group)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestSetCanonicalVersionMarksWholeGroup(t *testing.T) {
	store := &groupWriter{}
	svc := newTestService(store)

	group := []*models.Document{
		{ID: "doc_a", ProcessingStatus: models.StatusCompleted, ExtractedText: string(make([]byte, 5000)), IngestedAt: at(5)},
		{ID: "doc_b", ProcessingStatus: models.StatusNeedsReview, ExtractedText: "tiny", IngestedAt: at(500)},
	}

	winner, err := svc.SetCanonicalVersion(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, "doc_a", winner.ID)

	// One atomic group write covering every member
	require.Len(t, store.written, 1)
	require.Len(t, store.written[0], 2)

	// Every member agrees on the canonical id; only the winner is flagged
	for _, doc := range group {
		assert.Equal(t, winner.ID, doc.CanonicalDocumentID())
		assert.Equal(t, doc.ID == winner.ID, doc.IsCanonical())
	}
}

func TestSetCanonicalVersionSingleMemberWritesNothing(t *testing.T) {
	store := &groupWriter{}
	svc := newTestService(store)
	only := &models.Document{ID: "doc_a"}

	winner, err := svc.SetCanonicalVersion(context.Background(), []*models.Document{only})
	require.NoError(t, err)
	assert.Same(t, only, winner)
	assert.Empty(t, store.written)
	assert.Nil(t, only.Metadata)
}

func TestRecencyScoreTiers(t *testing.T) {
	svc := newTestService(&groupWriter{})

	tests := []struct {
		daysAgo int
		want    float64
	}{
		{10, 1.0},
		{60, 0.8},
		{120, 0.6},
		{300, 0.4},
		{700, 0.2},
	}
	for _, tt := range tests {
		doc := &models.Document{IngestedAt: at(tt.daysAgo)}
		assert.Equal(t, tt.want, svc.recencyScore(doc), "days ago %d", tt.daysAgo)
	}
}

func TestRecencyScoreNeutralWhenDisabled(t *testing.T) {
	svc := newTestService(&groupWriter{})
	svc.config.PreferLatest = false

	doc := &models.Document{IngestedAt: at(1)}
	assert.Equal(t, 0.5, svc.recencyScore(doc))
}

func TestRecencyScoreNeutralWithoutTimestamps(t *testing.T) {
	svc := newTestService(&groupWriter{})
	assert.Equal(t, 0.5, svc.recencyScore(&models.Document{}))
}

// fixedGroups serves canned duplicate groups; only FindDuplicateGroups is
// exercised by EnsureCanonical
type fixedGroups struct {
	groups [][]*models.Document
}

func (f *fixedGroups) FindExactDuplicate(ctx context.Context, sha256, matterID string) (*models.Document, error) {
	return nil, nil
}
func (f *fixedGroups) FindNearDuplicates(ctx context.Context, text, matterID, excludeID string) ([]models.ScoredDocument, error) {
	return nil, nil
}
func (f *fixedGroups) CompareDocuments(a, b *models.Document) *models.DocumentComparison {
	return nil
}
func (f *fixedGroups) FindDuplicateGroups(ctx context.Context, matterID string, threshold float64) ([][]*models.Document, error) {
	return f.groups, nil
}

func TestEnsureCanonicalSelectsUnmarkedGroup(t *testing.T) {
	strong := &models.Document{
		ID:               "doc_strong",
		MatterID:         "mat_1",
		ProcessingStatus: models.StatusCompleted,
		ExtractedText:    string(make([]byte, 20000)),
		FileSize:         2 * 1024 * 1024,
		IngestedAt:       at(10),
	}
	weak := &models.Document{
		ID:               "doc_weak",
		MatterID:         "mat_1",
		ProcessingStatus: models.StatusNeedsReview,
		ExtractedText:    "short",
		IngestedAt:       at(10),
	}
	store := &groupWriter{docs: map[string]*models.Document{weak.ID: weak}}
	svc := newTestService(store)
	svc.groups = &fixedGroups{groups: [][]*models.Document{{weak, strong}}}

	canonical, err := svc.EnsureCanonical(context.Background(), "doc_weak")
	require.NoError(t, err)
	assert.Equal(t, "doc_strong", canonical.ID)

	// Selection persisted markers for the whole group
	require.Len(t, store.written, 1)
	assert.True(t, strong.IsCanonical())
	assert.False(t, weak.IsCanonical())
}

func TestEnsureCanonicalReturnsExistingMarker(t *testing.T) {
	marked := &models.Document{ID: "doc_marked", MatterID: "mat_1"}
	marked.MarkCanonical("doc_marked", at(5))
	other := &models.Document{ID: "doc_other", MatterID: "mat_1"}
	store := &groupWriter{docs: map[string]*models.Document{other.ID: other}}
	svc := newTestService(store)
	svc.groups = &fixedGroups{groups: [][]*models.Document{{marked, other}}}

	canonical, err := svc.EnsureCanonical(context.Background(), "doc_other")
	require.NoError(t, err)
	assert.Equal(t, "doc_marked", canonical.ID)
	assert.Empty(t, store.written)
}

func TestEnsureCanonicalUngroupedDocument(t *testing.T) {
	lone := &models.Document{ID: "doc_lone", MatterID: "mat_1"}
	store := &groupWriter{docs: map[string]*models.Document{lone.ID: lone}}
	svc := newTestService(store)
	svc.groups = &fixedGroups{}

	canonical, err := svc.EnsureCanonical(context.Background(), "doc_lone")
	require.NoError(t, err)
	assert.Same(t, lone, canonical)
	assert.Empty(t, store.written)
}

func TestEnsureCanonicalUnknownDocument(t *testing.T) {
	svc := newTestService(&groupWriter{})
	svc.groups = &fixedGroups{}

	_, err := svc.EnsureCanonical(context.Background(), "doc_missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
