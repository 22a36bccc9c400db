package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondPrivateJSONWithETag serves a per-user document with a content hash as its
// validator. A matching If-None-Match gets 304 without a body. Responses are marked
// private and vary on the session cookie so a proxy never hands one user's profile
// to another.
func RespondPrivateJSONWithETag(ctx *gin.Context, status int, doc interface{}) {
	tag, ok := contentETag(doc)
	if !ok {
		ctx.JSON(status, doc)
		return
	}

	h := ctx.Writer.Header()
	h.Set("ETag", tag)
	h.Set("Cache-Control", "private, no-cache")
	h.Add("Vary", "Cookie")

	if revalidated(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, doc)
}

// first 16 bytes of sha256 over the JSON encoding, quoted
func contentETag(doc interface{}) (string, bool) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", false
	}

	sum := sha256.Sum256(raw)

	return `"` + hex.EncodeToString(sum[:16]) + `"`, true
}

// revalidated applies the weak comparison If-None-Match calls for.
func revalidated(ifNoneMatch, tag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" || tag == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}

	want := opaqueTag(tag)

	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if opaqueTag(candidate) == want {
			return true
		}
	}

	return false
}

func opaqueTag(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(v, "W/")
}
