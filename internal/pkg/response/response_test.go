package response

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestOKWrapsSlices(t *testing.T) {
	c, w := testContext()
	OK(c, []string{"a", "b"})

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"data":["a","b"]}`, w.Body.String())
}

func TestOKPassesObjectsThrough(t *testing.T) {
	c, w := testContext()
	OK(c, gin.H{"name": "spes-core"})

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"name":"spes-core"}`, w.Body.String())
}

func TestErrorEnvelopeShape(t *testing.T) {
	c, w := testContext()
	NotFoundMsg(c, "Invalid code. Please try again.")

	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{"ok":0,"code":404,"message":"Invalid code. Please try again."}`, w.Body.String())
	assert.True(t, c.IsAborted())
}

func TestNoContent(t *testing.T) {
	c, w := testContext()
	NoContent(c)
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.String())
}
