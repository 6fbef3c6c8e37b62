package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vexdb/internal/status"
)

func decodeValidate(t *testing.T, body string, ns string, r *Router) ValidateReply {
	t.Helper()
	rec := postJSON(r, "/v1/namespaces/"+ns+"/validate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out ValidateReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const itemsValidator = `"validator": {"tags": {"$_internalSchemaMinItems": 1, "$_internalSchemaMaxItems": 3, "$_internalSchemaUniqueItems": true}}`

func TestValidateAllPass(t *testing.T) {
	router := newTestRouter(t, testConfig())

	reply := decodeValidate(t, `{`+itemsValidator+`, "documents": [{"_id": 1, "tags": ["a"]}, {"_id": 2, "tags": ["a", "b", "c"]}]}`,
		"app.items", router)

	assert.Equal(t, 1, reply.OK)
	assert.Equal(t, "app.items", reply.Namespace)
	assert.True(t, reply.Valid)
	assert.Equal(t, 2, reply.N)
	assert.Empty(t, reply.WriteErrors)
}

func TestValidateUnorderedFailures(t *testing.T) {
	router := newTestRouter(t, testConfig())

	reply := decodeValidate(t, `{`+itemsValidator+`, "ordered": false, "stmtIds": [5, 6, 7], "documents": [
		{"_id": "a", "tags": []},
		{"_id": "b", "tags": ["x"]},
		{"_id": "c", "tags": ["x", "x"]}
	]}`, "app.items", router)

	assert.False(t, reply.Valid)
	require.Len(t, reply.WriteErrors, 2)

	first := reply.WriteErrors[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, int32(5), first.StmtID)
	assert.JSONEq(t, `"a"`, string(first.ID))
	assert.Equal(t, int32(status.DocumentValidationFailure), first.Code)
	assert.Equal(t, "DocumentValidationFailure", first.CodeName)

	assert.Equal(t, 2, reply.WriteErrors[1].Index)
	assert.Equal(t, int32(7), reply.WriteErrors[1].StmtID)
}

func TestValidateOrderedStopsAtFirstFailure(t *testing.T) {
	router := newTestRouter(t, testConfig())

	reply := decodeValidate(t, `{`+itemsValidator+`, "documents": [
		{"tags": ["ok"]},
		{"tags": [1, 2, 3, 4]},
		{"tags": []}
	]}`, "app.items", router)

	require.Len(t, reply.WriteErrors, 1)
	assert.Equal(t, 1, reply.WriteErrors[0].Index)
	assert.Nil(t, reply.WriteErrors[0].ID)
}

func TestValidateObjectMatch(t *testing.T) {
	router := newTestRouter(t, testConfig())

	body := `{"validator": {"owner": {"$_internalSchemaObjectMatch": {"name": {"$type": "string"}}}},
		"ordered": false,
		"documents": [{"owner": {"name": "ann"}}, {"owner": {"name": 7}}, {"owner": 3}]}`
	reply := decodeValidate(t, body, "app.items", router)

	require.Len(t, reply.WriteErrors, 2)
	assert.Equal(t, 1, reply.WriteErrors[0].Index)
	assert.Equal(t, 2, reply.WriteErrors[1].Index)
}

func TestValidateBypass(t *testing.T) {
	router := newTestRouter(t, testConfig())

	reply := decodeValidate(t, `{`+itemsValidator+`, "bypassDocumentValidation": true, "documents": [{"tags": []}]}`,
		"app.items", router)
	assert.True(t, reply.Valid)
	assert.True(t, reply.Bypassed)
	assert.Zero(t, reply.N)
}

func TestValidateErrors(t *testing.T) {
	router := newTestRouter(t, testConfig())

	tests := []struct {
		name string
		ns   string
		body string
		code status.Code
	}{
		{"invalid namespace", "nodot", `{"documents": [{}]}`, status.InvalidNamespace},
		{"bad validator shape", "app.items", `{"validator": {"tags": {"$_internalSchemaMinItems": -1}}, "documents": [{}]}`, status.FailedToParse},
		{"operator below top level", "app.items", `{"validator": {"a": {"$_internalSchemaObjectMatch": {"$isolated": 1}}}, "documents": [{}]}`, status.BadValue},
		{"validator not object", "app.items", `{"validator": 1, "documents": [{}]}`, status.TypeMismatch},
		{"no documents", "app.items", `{"documents": []}`, status.InvalidLength},
		{"document not object", "app.items", `{"documents": [1]}`, status.TypeMismatch},
		{"stmtIds mismatch", "app.items", `{"stmtIds": [1, 2], "documents": [{}]}`, status.InvalidLength},
		{"unknown field", "app.items", `{"documents": [{}], "extra": true}`, status.IDLUnknownField},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(router, "/v1/namespaces/"+tc.ns+"/validate", tc.body)
			eb := decodeError(t, rec, http.StatusBadRequest)
			assert.Equal(t, int32(tc.code), eb.Code)
		})
	}
}
