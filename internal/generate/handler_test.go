package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge/internal/brd/repository"
	"github.com/reqforge/reqforge/internal/eventbus"
	"github.com/stretchr/testify/require"
)

func passAuth() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}

func newTestRouter(t *testing.T, replyURL string) (*gin.Engine, *repository.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := repository.NewMemoryStore()
	svc := NewService(testClient(replyURL), mem.BRDs(), mem.Stories(), eventbus.NewBus())

	r := gin.New()
	NewHandler(svc).Register(r.Group("/api"), passAuth())
	return r, mem
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateBRDEndpoint(t *testing.T) {
	srv := completionServer(t, "## Summary\nDo X")
	defer srv.Close()
	r, _ := newTestRouter(t, srv.URL)

	w := postJSON(t, r, "/api/generate", gin.H{"productName": "Widget", "goals": "grow"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		BRDID string `json:"brdId"`
		BRD   string `json:"brd"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.BRDID)
	require.Equal(t, "Summary Do X", resp.BRD)
}

// The stories endpoint replies with the persisted records, not bare text,
// so clients can immediately edit or delete what was just generated.
func TestGenerateUserStoriesEndpoint_ReturnsRecords(t *testing.T) {
	srv := completionServer(t, "As a user, I want A\nAs a user, I want B\nAs a user, I want C")
	defer srv.Close()
	r, mem := newTestRouter(t, srv.URL)

	w := postJSON(t, r, "/api/generateUserStories", gin.H{"brdId": "brd-1", "goals": "grow"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stories []struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		} `json:"stories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Stories, 3)

	stored, err := mem.Stories().ListByBRD(context.Background(), "brd-1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, st := range resp.Stories {
		require.NotEmpty(t, st.ID)
		require.Equal(t, stored[i].ID, st.ID)
		require.Equal(t, stored[i].Content, st.Content)
	}
}

func TestGenerateUserStoriesEndpoint_ValidationError(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused")

	w := postJSON(t, r, "/api/generateUserStories", gin.H{"goals": "grow"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
