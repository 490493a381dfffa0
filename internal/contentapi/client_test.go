package contentapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetdash/internal/contentapi/contentapitest"
	"tweetdash/internal/models"
)

func TestGenerateReturnsContentID(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()

	c := New(svc.URL()+"/", WithAuthHeader("Bearer abc"), WithCookie("session=xyz"))
	res, err := c.Generate(context.Background(), "launch day", models.GenerateOptions{})
	require.NoError(t, err)
	require.NotNil(t, res.ContentID)
	assert.True(t, res.CanPost)
	assert.NotEmpty(t, res.ImageURL, "generateImage defaults to true")
	assert.Equal(t, "Generated: launch day", res.Tweet)

	h := svc.LastHeaders()
	assert.Equal(t, "Bearer abc", h.Get("Authorization"))
	assert.Equal(t, "session=xyz", h.Get("Cookie"))
}

func TestGenerateWithoutContentID(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()
	svc.OmitContentID = true

	res, err := New(svc.URL()).Generate(context.Background(), "hello", models.GenerateOptions{GenerateImage: models.Bool(false)})
	require.NoError(t, err)
	assert.Nil(t, res.ContentID)
	assert.False(t, res.CanPost)
	assert.Empty(t, res.ImageURL)
}

func TestPublishMapsStatusKinds(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()
	svc.Seed(models.ContentItem{ID: 42, Prompt: "p", Body: "b"})
	c := New(svc.URL())

	msg, err := c.Publish(context.Background(), 42)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	_, err = c.Publish(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConflict))

	_, err = c.Publish(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, "Content not found", models.UserMessage(err, "fallback"))
}

func TestSoftFailureIsServerError(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()
	svc.Seed(models.ContentItem{ID: 3})
	svc.Fail(contentapitest.OpPublish, contentapitest.Failure{SoftFail: true, Message: "Twitter is down"})

	_, err := New(svc.URL()).Publish(context.Background(), 3)
	var serr *models.ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusOK, serr.Status)
	assert.Equal(t, "Twitter is down", serr.Message)
}

func TestServerErrorWithoutMessage(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()
	svc.Fail(contentapitest.OpGenerate, contentapitest.Failure{Status: http.StatusInternalServerError})

	_, err := New(svc.URL()).Generate(context.Background(), "x", models.GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, "Failed to generate tweet", models.UserMessage(err, "Failed to generate tweet"))
}

func TestDroppedConnectionIsNetworkError(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()
	svc.Fail(contentapitest.OpDelete, contentapitest.Failure{Drop: true})

	_, err := New(svc.URL()).Delete(context.Background(), 1)
	var nerr *models.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, models.GenericNetworkMessage, models.UserMessage(err, "Failed to delete content"))
}

func TestTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).ListContent(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
}

func TestListContentDecodesLenientFields(t *testing.T) {
	svc := contentapitest.New()
	defer svc.Close()
	svc.Seed(models.ContentItem{ID: 1, Prompt: "a", Body: "A", IsPublished: true, ImageURL: "/img/1.png"})
	svc.Seed(models.ContentItem{ID: 2, Prompt: "b", Body: "B"})

	list, err := New(svc.URL()).ListContent(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, int64(2), list.Items[0].ID, "newest first")
	assert.True(t, list.Items[1].IsPublished)
	assert.True(t, list.Items[1].HasImage())
	assert.False(t, list.Items[1].CreatedAt.IsZero())

	assert.Equal(t, 2, list.Stats.Total)
	assert.Equal(t, 1, list.Stats.Published)
	assert.Equal(t, 1, list.Stats.Images)
	assert.InDelta(t, 50.0, list.Stats.EngagementRate, 0.001)
	assert.False(t, list.EngagementReported, "rate is derived from the counts")
	assert.False(t, list.UsersReported)

	svc.SetUsers(12)
	list, err = New(svc.URL()).ListContent(context.Background())
	require.NoError(t, err)
	assert.True(t, list.UsersReported)
	assert.Equal(t, 12, list.Stats.Users)
}
