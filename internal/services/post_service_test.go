package services

import (
	"context"
	"testing"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	svc        *PostService
	users      *testutil.UserRepoStub
	posts      *testutil.PostRepoStub
	categories *testutil.CategoryRepoStub
	publisher  *testutil.RecordingPublisher
	classifier *stubClassifier
}

func newPostFixture() *postFixture {
	f := &postFixture{
		users:      testutil.NewUserRepoStub(),
		posts:      testutil.NewPostRepoStub(),
		categories: testutil.NewCategoryRepoStub(),
		publisher:  &testutil.RecordingPublisher{},
		classifier: &stubClassifier{verdicts: map[string]Verdict{"nsfw.png": {Adult: VeryLikely}}},
	}
	moderation := NewModerationService(f.classifier, f.users, nil, 3, nil)
	f.svc = NewPostService(f.posts, f.users, f.categories, moderation, f.publisher, nil)
	return f
}

func TestPostService_CreatePostFilesCategoryAndBroadcasts(t *testing.T) {
	f := newPostFixture()
	author := f.users.Seed("author")

	post, err := f.svc.CreatePost(context.Background(), author.ID, &models.CreatePostRequest{
		Title:         "  Harbour at dusk ",
		ImageURLs:     []string{"dusk.png"},
		CategoryTitle: " Oil Painting ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour at dusk", post.Title)
	assert.Equal(t, "oil painting", post.CategoryTitle)
	assert.False(t, post.CategoryID.IsZero())
	assert.Zero(t, post.LikesCount)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventNewPost, events[0].Event)

	categories, err := f.svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "oil painting", categories[0].Title)
}

func TestPostService_CreatePostDefaultsCategory(t *testing.T) {
	f := newPostFixture()
	author := f.users.Seed("author")

	post, err := f.svc.CreatePost(context.Background(), author.ID, &models.CreatePostRequest{Title: "x", ImageURLs: []string{"x.png"}})
	require.NoError(t, err)
	assert.Equal(t, "uncategorized art", post.CategoryTitle)

	named, err := f.svc.CreatePost(context.Background(), author.ID, &models.CreatePostRequest{
		Title:         "y",
		ImageURLs:     []string{"y.png"},
		CategoryTitle: "Uncategorized Art",
	})
	require.NoError(t, err)
	assert.Equal(t, post.CategoryID, named.CategoryID)

	categories, err := f.svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

type stubLabeler struct {
	labels map[string][]string
	err    error
}

func (s *stubLabeler) Labels(_ context.Context, ref string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.labels[ref], nil
}

func TestPostService_CategoryFromImageLabels(t *testing.T) {
	labeler := &stubLabeler{labels: map[string][]string{
		"sky.png":     {"Sky", "Cloud"},
		"harbour.png": {"Water", "Oil Painting", "Boat"},
	}}

	tests := []struct {
		name    string
		labeler *stubLabeler
		req     models.CreatePostRequest
		want    string
	}{
		{
			name:    "first art label across images",
			labeler: labeler,
			req:     models.CreatePostRequest{Title: "a", ImageURLs: []string{"sky.png", "harbour.png"}},
			want:    "oil painting",
		},
		{
			name:    "client title wins",
			labeler: labeler,
			req:     models.CreatePostRequest{Title: "a", ImageURLs: []string{"harbour.png"}, CategoryTitle: "Sketches"},
			want:    "sketches",
		},
		{
			name:    "no art label",
			labeler: labeler,
			req:     models.CreatePostRequest{Title: "a", ImageURLs: []string{"sky.png"}},
			want:    models.UncategorizedTitle,
		},
		{
			name:    "labeling failure",
			labeler: &stubLabeler{err: assert.AnError},
			req:     models.CreatePostRequest{Title: "a", ImageURLs: []string{"harbour.png"}},
			want:    models.UncategorizedTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostFixture()
			f.svc.WithLabeler(tt.labeler)
			author := f.users.Seed("author")

			post, err := f.svc.CreatePost(context.Background(), author.ID, &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, post.CategoryTitle)
		})
	}
}

func TestPickArtCategory(t *testing.T) {
	t.Parallel()

	title, ok := pickArtCategory([]string{"Person", " Street Art ", "Painting"})
	assert.True(t, ok)
	assert.Equal(t, "street art", title)

	_, ok = pickArtCategory([]string{"Car", "Road"})
	assert.False(t, ok)

	_, ok = pickArtCategory(nil)
	assert.False(t, ok)
}

func TestPostService_CreatePostRejectsExplicitImage(t *testing.T) {
	f := newPostFixture()
	author := f.users.Seed("author")

	_, err := f.svc.CreatePost(context.Background(), author.ID, &models.CreatePostRequest{
		Title:     "x",
		ImageURLs: []string{"ok.png", "nsfw.png"},
	})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, f.publisher.Events())

	total, err := f.posts.CountPosts(context.Background(), models.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPostService_UpdateAndDeleteOwnPostOnly(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := f.users.Seed("author")
	other := f.users.Seed("other")
	p := f.posts.Seed(author.ID, "draft")

	_, err := f.svc.UpdatePost(ctx, other.ID, p.ID, &models.UpdatePostRequest{Title: "stolen"})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeletePost(ctx, other.ID, p.ID), models.ErrForbidden)

	updated, err := f.svc.UpdatePost(ctx, author.ID, p.ID, &models.UpdatePostRequest{Title: "final", CategoryTitle: "Ink"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "ink", updated.CategoryTitle)

	_, err = f.svc.UpdatePost(ctx, author.ID, p.ID, &models.UpdatePostRequest{ImageURLs: []string{"nsfw.png"}})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, f.svc.DeletePost(ctx, author.ID, p.ID))
	_, err = f.svc.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostService_ListPostsPagesAndCounts(t *testing.T) {
	f := newPostFixture()
	author := f.users.Seed("author")
	other := f.users.Seed("other")
	for i := 0; i < 3; i++ {
		f.posts.Seed(author.ID, "a")
	}
	f.posts.Seed(other.ID, "b")

	posts, total, err := f.svc.ListPosts(context.Background(), models.PostFilter{AuthorID: author.ID}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, posts, 1)
}

func TestPostService_FeedAnnotatesViewerState(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := f.users.Seed("author")
	viewer := f.users.Seed("viewer")
	liked := f.posts.Seed(author.ID, "liked")
	saved := f.posts.Seed(author.ID, "saved")

	_, err := f.posts.AddLike(ctx, liked.ID, models.PostLike{UserID: viewer.ID})
	require.NoError(t, err)
	_, err = f.users.AddSavedPost(ctx, viewer.ID, saved.ID)
	require.NoError(t, err)

	feed, total, err := f.svc.Feed(ctx, viewer.ID, models.PostFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, feed, 2)

	byID := map[string]models.FeedPost{}
	for _, fp := range feed {
		byID[fp.ID.Hex()] = fp
		assert.Equal(t, "author", fp.Author.Username)
	}
	assert.True(t, byID[liked.ID.Hex()].IsLiked)
	assert.False(t, byID[liked.ID.Hex()].IsSaved)
	assert.True(t, byID[saved.ID.Hex()].IsSaved)
	assert.False(t, byID[saved.ID.Hex()].IsLiked)
}

func TestPostService_DeleteCategoryInUse(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := f.users.Seed("author")

	post, err := f.svc.CreatePost(ctx, author.ID, &models.CreatePostRequest{Title: "x", ImageURLs: []string{"x.png"}, CategoryTitle: "ink"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteCategory(ctx, post.CategoryID), models.ErrValidation)

	require.NoError(t, f.svc.DeletePost(ctx, author.ID, post.ID))
	require.NoError(t, f.svc.DeleteCategory(ctx, post.CategoryID))

	categories, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
