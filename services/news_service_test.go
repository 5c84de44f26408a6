package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/repository"
)

type newsEnv struct {
	news       *newsService
	categories CategoryService
	users      repository.UserRepository
	clock      *testClock
	author     *models.User
}

func newNewsEnv(t *testing.T) *newsEnv {
	t.Helper()
	db := openTestDB(t)

	categoryRepo := repository.NewSQLiteCategoryRepo(db.Conn)
	env := &newsEnv{
		categories: NewCategoryService(categoryRepo),
		users:      repository.NewSQLiteUserRepo(db.Conn),
		clock:      newTestClock(),
	}
	env.news = NewNewsService(repository.NewSQLiteNewsRepo(db.Conn), categoryRepo, env.users).(*newsService)
	env.news.now = env.clock.Now
	env.author = seedUser(t, env.users, "editor", models.RoleAdmin)
	return env
}

func (e *newsEnv) category(t *testing.T, slug string) *models.NewsCategory {
	t.Helper()
	all, err := e.categories.GetAll(context.Background())
	require.NoError(t, err)
	for i := range all {
		if all[i].Slug == slug {
			return &all[i]
		}
	}
	t.Fatalf("category %q not seeded", slug)
	return nil
}

func (e *newsEnv) publish(t *testing.T, title string, categoryID *int64, published *bool) *models.News {
	t.Helper()
	n, err := e.news.Create(context.Background(), e.author.ID, &models.CreateNewsRequest{
		Title:      title,
		Content:    "Full article body.",
		Excerpt:    "Short excerpt",
		CoverImage: "https://cdn.example/cover.png",
		CategoryID: categoryID,
		Published:  published,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return n
}

func TestNewsCreateDefaults(t *testing.T) {
	env := newNewsEnv(t)
	evento := env.category(t, "evento")

	n := env.publish(t, "Corrida de Rua Neste Sábado", &evento.ID, nil)

	assert.True(t, n.Published)
	assert.Equal(t, "corrida-de-rua-neste-sabado", n.Slug)
	require.NotNil(t, n.AuthorID)
	assert.Equal(t, env.author.ID, *n.AuthorID)
}

func TestNewsPublicListingHidesDrafts(t *testing.T) {
	ctx := context.Background()
	env := newNewsEnv(t)
	evento := env.category(t, "evento")
	mecanica := env.category(t, "mecanica")
	draft := false

	env.publish(t, "Evento de Drift", &evento.ID, nil)
	env.publish(t, "Nova Mecânica de Pesca", &mecanica.ID, nil)
	env.publish(t, "Rascunho Secreto", &evento.ID, &draft)

	public, err := env.news.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "nova-mecanica-de-pesca", public[0].Slug)
	require.NotNil(t, public[0].Category)
	assert.Equal(t, "mecanica", public[0].Category.Slug)

	events, err := env.news.List(ctx, "evento", 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evento-de-drift", events[0].Slug)

	unknown, err := env.news.List(ctx, "nao-existe", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	all, err := env.news.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	featured, err := env.news.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 2)
}

func TestNewsGetBySlug(t *testing.T) {
	ctx := context.Background()
	env := newNewsEnv(t)
	evento := env.category(t, "evento")
	draft := false

	env.publish(t, "Evento de Drift", &evento.ID, nil)
	env.publish(t, "Rascunho", nil, &draft)

	article, err := env.news.GetBySlug(ctx, "evento-de-drift")
	require.NoError(t, err)
	require.NotNil(t, article.Category)
	assert.Equal(t, evento.ID, article.Category.ID)
	require.NotNil(t, article.Author)
	assert.Equal(t, "editor", article.Author.Username)

	_, err = env.news.GetBySlug(ctx, "rascunho")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = env.news.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestNewsRejectsUnknownCategoryAndDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	env := newNewsEnv(t)
	bogus := int64(9999)

	_, err := env.news.Create(ctx, env.author.ID, &models.CreateNewsRequest{
		Title: "Orphan", Content: "x", Excerpt: "x", CoverImage: "x", CategoryID: &bogus,
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	env.publish(t, "Same Title", nil, nil)
	_, err = env.news.Create(ctx, env.author.ID, &models.CreateNewsRequest{
		Title: "Same Title", Content: "x", Excerpt: "x", CoverImage: "x",
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = env.news.Create(ctx, env.author.ID, &models.CreateNewsRequest{Title: "No Body"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestNewsPublishingDraftResetsPublishedAt(t *testing.T) {
	ctx := context.Background()
	env := newNewsEnv(t)
	draft := false

	n := env.publish(t, "Em Breve", nil, &draft)
	env.clock.Advance(time.Hour)

	published := true
	title := "Agora Sim"
	updated, err := env.news.Update(ctx, n.ID, &models.UpdateNewsRequest{Published: &published, Title: &title})
	require.NoError(t, err)
	assert.True(t, updated.Published)
	assert.Equal(t, "Agora Sim", updated.Title)
	assert.Equal(t, "em-breve", updated.Slug)
	assert.Equal(t, env.clock.Now(), updated.PublishedAt)

	require.NoError(t, env.news.Delete(ctx, n.ID))
	assert.ErrorIs(t, env.news.Delete(ctx, n.ID), pkg.ErrNotFound)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newNewsEnv(t)

	created, err := env.categories.Create(ctx, &models.CreateCategoryRequest{Name: "Polícia Civil"})
	require.NoError(t, err)
	assert.Equal(t, "policia-civil", created.Slug)
	assert.Equal(t, models.DefaultCategoryColor, created.Color)

	_, err = env.categories.Create(ctx, &models.CreateCategoryRequest{Name: "Evento"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = env.categories.Create(ctx, &models.CreateCategoryRequest{Name: "Bad", Color: "red"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	color := "#123456"
	updated, err := env.categories.Update(ctx, created.ID, &models.UpdateCategoryRequest{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#123456", updated.Color)
	assert.Equal(t, "Polícia Civil", updated.Name)

	// Silinen kategorinin haberleri kategorisiz kalır.
	n := env.publish(t, "Operação Noturna", &created.ID, nil)
	require.NoError(t, env.categories.Delete(ctx, created.ID))

	article, err := env.news.GetBySlug(ctx, n.Slug)
	require.NoError(t, err)
	assert.Nil(t, article.CategoryID)
	assert.Nil(t, article.Category)
}
