package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type validationEntry struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func abortValidation(c *gin.Context, entries ...validationEntry) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": entries})
}

func fieldError(field, msg, typ string) validationEntry {
	return validationEntry{Loc: []string{"body", field}, Msg: msg, Type: typ}
}

func queryError(field, msg, typ string) validationEntry {
	return validationEntry{Loc: []string{"query", field}, Msg: msg, Type: typ}
}

// bindBody decodes the JSON body into dst, answering 422 on malformed input.
func bindBody(c *gin.Context, dst interface{}) bool {
	raw, ok := c.Get(bodyKey)
	var data []byte
	if ok {
		data = raw.([]byte)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		abortValidation(c, validationEntry{Loc: []string{"body"}, Msg: "field required", Type: "value_error.missing"})
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		abortValidation(c, validationEntry{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"})
		return false
	}
	return true
}

const bodyKey = "apitest.body"

func readBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Set(bodyKey, data)
	return string(data)
}
