package api_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/internal/apitest"
	"github.com/d60-Lab/blog-api/internal/dto"
	"github.com/d60-Lab/blog-api/internal/fixture"
	"github.com/d60-Lab/blog-api/internal/model"
	"github.com/d60-Lab/blog-api/pkg/response"
)

func newPostBody() map[string]any {
	return map[string]any{
		"title":   "A title",
		"author":  map[string]string{"firstName": "Ada", "lastName": "Lovelace"},
		"content": "Lorem ipsum dolor sit amet",
	}
}

func TestListPosts_ReturnsSeeded(t *testing.T) {
	env := apitest.New(t)

	w := env.Do(http.MethodGet, "/posts", nil)
	env.RequireStatus(w, http.StatusOK)

	body := apitest.DecodeJSON[dto.PostListResponse](env, w)
	require.Len(t, body.Posts, fixture.DefaultCount)

	seeded := map[string]bool{}
	for _, p := range env.Seeded {
		seeded[p.ID] = true
	}
	for _, p := range body.Posts {
		assert.True(t, seeded[p.ID], "unexpected post %s", p.ID)
		assert.False(t, p.Created.IsZero())
	}
}

func TestListPosts_MatchesStore(t *testing.T) {
	env := apitest.New(t)

	body := apitest.DecodeJSON[dto.PostListResponse](env, env.Do(http.MethodGet, "/posts", nil))
	require.NotEmpty(t, body.Posts)

	for _, p := range body.Posts {
		stored := env.FindByID(p.ID)
		require.NotNil(t, stored, "post %s missing from store", p.ID)
		assert.Equal(t, stored.Title, p.Title)
		assert.Equal(t, model.Author{FirstName: p.Author.FirstName, LastName: p.Author.LastName}, stored.Author)
		assert.Equal(t, stored.Content, p.Content)
	}
}

func TestListPosts_Empty(t *testing.T) {
	env := apitest.New(t, apitest.WithSeedCount(0))

	w := env.Do(http.MethodGet, "/posts", nil)
	env.RequireStatus(w, http.StatusOK)
	assert.JSONEq(t, `{"posts":[]}`, w.Body.String())
}

func TestGetPost(t *testing.T) {
	env := apitest.New(t)
	want := env.Seeded[0]

	w := env.Do(http.MethodGet, "/posts/"+want.ID, nil)
	env.RequireStatus(w, http.StatusOK)
	got := apitest.DecodeJSON[dto.PostResponse](env, w)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Content, got.Content)

	w = env.Do(http.MethodGet, "/posts/"+uuid.NewString(), nil)
	env.RequireStatus(w, http.StatusNotFound)
	assert.Equal(t, "not_found", apitest.DecodeJSON[response.ErrorBody](env, w).Code)
}

func TestCreatePost(t *testing.T) {
	env := apitest.New(t)

	w := env.Do(http.MethodPost, "/posts", newPostBody())
	env.RequireStatus(w, http.StatusCreated)

	created := apitest.DecodeJSON[dto.PostResponse](env, w)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "A title", created.Title)
	assert.Equal(t, dto.AuthorDTO{FirstName: "Ada", LastName: "Lovelace"}, created.Author)
	assert.Equal(t, "Lorem ipsum dolor sit amet", created.Content)

	stored := env.FindByID(created.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "A title", stored.Title)
	assert.Equal(t, model.Author{FirstName: "Ada", LastName: "Lovelace"}, stored.Author)
	assert.Equal(t, "Lorem ipsum dolor sit amet", stored.Content)

	list := apitest.DecodeJSON[dto.PostListResponse](env, env.Do(http.MethodGet, "/posts", nil))
	assert.Len(t, list.Posts, fixture.DefaultCount+1)
}

func TestCreatePost_Validation(t *testing.T) {
	env := apitest.New(t)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "missing title",
			body:    map[string]any{"author": map[string]string{"firstName": "a", "lastName": "b"}, "content": "c"},
			message: "missing required field(s): title",
		},
		{
			name:    "missing author and content",
			body:    map[string]any{"title": "t"},
			message: "missing required field(s): author, content",
		},
		{
			name:    "partial author",
			body:    map[string]any{"title": "t", "author": map[string]string{"firstName": "a"}, "content": "c"},
			message: "missing required field(s): author.lastName",
		},
		{
			name:    "blank content",
			body:    map[string]any{"title": "t", "author": map[string]string{"firstName": "a", "lastName": "b"}, "content": "   "},
			message: "missing required field(s): content",
		},
		{
			name:    "title too long",
			body:    map[string]any{"title": strings.Repeat("x", 256), "author": map[string]string{"firstName": "a", "lastName": "b"}, "content": "c"},
			message: "field(s) exceed maximum length: title (max 255)",
		},
		{
			name:    "author name too long",
			body:    map[string]any{"title": "t", "author": map[string]string{"firstName": strings.Repeat("a", 101), "lastName": "b"}, "content": "c"},
			message: "field(s) exceed maximum length: author.firstName (max 100)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.Do(http.MethodPost, "/posts", tt.body)
			env.RequireStatus(w, http.StatusBadRequest)
			body := apitest.DecodeJSON[response.ErrorBody](env, w)
			assert.Equal(t, "validation_error", body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		w := env.Do(http.MethodPost, "/posts", `{"title": "t",`)
		env.RequireStatus(w, http.StatusBadRequest)
		body := apitest.DecodeJSON[response.ErrorBody](env, w)
		assert.Equal(t, "validation_error", body.Code)
		assert.True(t, strings.HasPrefix(body.Message, "invalid request body: "), body.Message)
	})

	cnt, err := env.Store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, fixture.DefaultCount, cnt, "rejected requests must not write")
}

func TestUpdatePost_FullReplacement(t *testing.T) {
	env := apitest.New(t)
	target := env.Seeded[3]

	body := map[string]any{
		"id":      target.ID,
		"title":   "Updated title",
		"author":  map[string]string{"firstName": "Grace", "lastName": "Hopper"},
		"content": "Updated content",
	}
	w := env.Do(http.MethodPut, "/posts/"+target.ID, body)
	env.RequireStatus(w, http.StatusNoContent)
	assert.Empty(t, w.Body.String())

	stored := env.FindByID(target.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "Updated title", stored.Title)
	assert.Equal(t, model.Author{FirstName: "Grace", LastName: "Hopper"}, stored.Author)
	assert.Equal(t, "Updated content", stored.Content)
}

func TestUpdatePost_Partial(t *testing.T) {
	env := apitest.New(t)
	target := env.Seeded[1]

	w := env.Do(http.MethodPut, "/posts/"+target.ID, map[string]any{"title": "Only the title"})
	env.RequireStatus(w, http.StatusNoContent)

	stored := env.FindByID(target.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "Only the title", stored.Title)
	assert.Equal(t, target.Author, stored.Author)
	assert.Equal(t, target.Content, stored.Content)
}

func TestUpdatePost_Errors(t *testing.T) {
	env := apitest.New(t)
	target := env.Seeded[0]

	tests := []struct {
		name   string
		id     string
		body   any
		status int
		code   string
	}{
		{"id mismatch", target.ID, map[string]any{"id": "other", "title": "t"}, http.StatusBadRequest, "validation_error"},
		{"nothing to update", target.ID, map[string]any{"id": target.ID}, http.StatusBadRequest, "validation_error"},
		{"blank title", target.ID, map[string]any{"title": ""}, http.StatusBadRequest, "validation_error"},
		{"malformed json", target.ID, "not json", http.StatusBadRequest, "validation_error"},
		{"title too long", target.ID, map[string]any{"title": strings.Repeat("x", 256)}, http.StatusBadRequest, "validation_error"},
		{"author name too long", target.ID, map[string]any{"author": map[string]string{"lastName": strings.Repeat("l", 101)}}, http.StatusBadRequest, "validation_error"},
		{"unknown id", uuid.NewString(), map[string]any{"title": "t"}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.Do(http.MethodPut, "/posts/"+tt.id, tt.body)
			env.RequireStatus(w, tt.status)
			assert.Equal(t, tt.code, apitest.DecodeJSON[response.ErrorBody](env, w).Code)
		})
	}

	stored := env.FindByID(target.ID)
	require.NotNil(t, stored)
	assert.Equal(t, target.Title, stored.Title, "rejected updates must not write")
}

func TestPosts_LengthLimitsAccepted(t *testing.T) {
	env := apitest.New(t)

	body := newPostBody()
	body["title"] = strings.Repeat("x", 255)
	body["author"] = map[string]string{"firstName": strings.Repeat("a", 100), "lastName": "b"}
	w := env.Do(http.MethodPost, "/posts", body)
	env.RequireStatus(w, http.StatusCreated)

	id := env.Seeded[0].ID
	w = env.Do(http.MethodPut, "/posts/"+id, map[string]any{"title": strings.Repeat("y", 255)})
	env.RequireStatus(w, http.StatusNoContent)
	assert.Equal(t, strings.Repeat("y", 255), env.FindByID(id).Title)
}

func TestUpdatePost_IDMismatchMessage(t *testing.T) {
	env := apitest.New(t)
	id := env.Seeded[0].ID

	w := env.Do(http.MethodPut, "/posts/"+id, map[string]any{"id": "abc", "title": "t"})
	env.RequireStatus(w, http.StatusBadRequest)
	assert.Equal(t,
		"request path id ("+id+") and request body id (abc) must match",
		apitest.DecodeJSON[response.ErrorBody](env, w).Message)
}

func TestDeletePost(t *testing.T) {
	env := apitest.New(t)
	target := env.Seeded[2]

	w := env.Do(http.MethodDelete, "/posts/"+target.ID, nil)
	env.RequireStatus(w, http.StatusNoContent)
	assert.Empty(t, w.Body.String())
	assert.Nil(t, env.FindByID(target.ID))

	w = env.Do(http.MethodDelete, "/posts/"+target.ID, nil)
	env.RequireStatus(w, http.StatusNotFound)
	assert.Equal(t, "not_found", apitest.DecodeJSON[response.ErrorBody](env, w).Code)

	list := apitest.DecodeJSON[dto.PostListResponse](env, env.Do(http.MethodGet, "/posts", nil))
	assert.Len(t, list.Posts, fixture.DefaultCount-1)
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []apitest.Option
	}{
		{"sql store", nil},
		{"cached store", []apitest.Option{apitest.WithCache()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := apitest.New(t, tc.opts...)

			// create -> read
			created := apitest.DecodeJSON[dto.PostResponse](env, env.Do(http.MethodPost, "/posts", newPostBody()))
			got := apitest.DecodeJSON[dto.PostResponse](env, env.Do(http.MethodGet, "/posts/"+created.ID, nil))
			assert.Equal(t, created, got)

			// warm the list cache before writing
			apitest.DecodeJSON[dto.PostListResponse](env, env.Do(http.MethodGet, "/posts", nil))

			// update -> read
			env.RequireStatus(env.Do(http.MethodPut, "/posts/"+created.ID, map[string]any{
				"id":      created.ID,
				"title":   "New title",
				"author":  map[string]string{"firstName": "Alan", "lastName": "Turing"},
				"content": "New content",
			}), http.StatusNoContent)
			got = apitest.DecodeJSON[dto.PostResponse](env, env.Do(http.MethodGet, "/posts/"+created.ID, nil))
			assert.Equal(t, "New title", got.Title)
			assert.Equal(t, dto.AuthorDTO{FirstName: "Alan", LastName: "Turing"}, got.Author)
			assert.Equal(t, "New content", got.Content)

			list := apitest.DecodeJSON[dto.PostListResponse](env, env.Do(http.MethodGet, "/posts", nil))
			var found bool
			for _, p := range list.Posts {
				if p.ID == created.ID {
					found = true
					assert.Equal(t, "New title", p.Title)
				}
			}
			assert.True(t, found)

			// delete -> read
			env.RequireStatus(env.Do(http.MethodDelete, "/posts/"+created.ID, nil), http.StatusNoContent)
			env.RequireStatus(env.Do(http.MethodGet, "/posts/"+created.ID, nil), http.StatusNotFound)
			assert.Nil(t, env.FindByID(created.ID))
		})
	}
}

func TestHealth(t *testing.T) {
	env := apitest.New(t, apitest.WithSeedCount(0))

	w := env.Do(http.MethodGet, "/health", nil)
	env.RequireStatus(w, http.StatusOK)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	env := apitest.New(t, apitest.WithSeedCount(0), apitest.WithConfig(func(c *config.Config) {
		c.Server.RateLimitRPS = 0.001
		c.Server.RateLimitBurst = 2
	}))

	env.RequireStatus(env.Do(http.MethodGet, "/posts", nil), http.StatusOK)
	env.RequireStatus(env.Do(http.MethodGet, "/posts", nil), http.StatusOK)

	w := env.Do(http.MethodGet, "/posts", nil)
	env.RequireStatus(w, http.StatusTooManyRequests)
	assert.Equal(t, "rate_limited", apitest.DecodeJSON[response.ErrorBody](env, w).Code)
}

func TestUnknownRoute(t *testing.T) {
	env := apitest.New(t, apitest.WithSeedCount(0))

	w := env.Do(http.MethodGet, "/nope", nil)
	env.RequireStatus(w, http.StatusNotFound)
	assert.Equal(t, "not_found", apitest.DecodeJSON[response.ErrorBody](env, w).Code)
}

func TestFixturesAreDeterministic(t *testing.T) {
	a := apitest.New(t)
	b := apitest.New(t)

	require.Len(t, b.Seeded, len(a.Seeded))
	for i := range a.Seeded {
		assert.Equal(t, a.Seeded[i].Title, b.Seeded[i].Title)
		assert.Equal(t, a.Seeded[i].Author, b.Seeded[i].Author)
		assert.Equal(t, a.Seeded[i].Content, b.Seeded[i].Content)
		assert.NotEqual(t, a.Seeded[i].ID, b.Seeded[i].ID)
	}
}
