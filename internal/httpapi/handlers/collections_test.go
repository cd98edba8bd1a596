package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

func TestCollectionHandler_CreateThenListAndGet(t *testing.T) {
	c := newTestContainer(t)
	h := NewCollectionHandler(c, response.NewHandler(zap.NewNop()))

	createRR := httptest.NewRecorder()
	h.Create(createRR, httptest.NewRequest(http.MethodPost, "/collections", strings.NewReader(`{"name":"Papers to Read","visibility":"private"}`)))
	require.Equal(t, http.StatusCreated, createRR.Code)
	var created dto.CollectionDTO
	decodeBody(t, createRR, &created)
	assert.Equal(t, "Papers to Read", created.Name)

	listRR := httptest.NewRecorder()
	h.List(listRR, httptest.NewRequest(http.MethodGet, "/collections", nil))
	require.Equal(t, http.StatusOK, listRR.Code)
	var list dto.CollectionsResponse
	decodeBody(t, listRR, &list)
	require.Len(t, list.Collections, 1)

	getReq := withURLParam(httptest.NewRequest(http.MethodGet, "/collections/"+created.ID, nil), "id", created.ID)
	getRR := httptest.NewRecorder()
	h.Get(getRR, getReq)
	require.Equal(t, http.StatusOK, getRR.Code)
	var got dto.CollectionDTO
	decodeBody(t, getRR, &got)
	assert.Equal(t, created.ID, got.ID)
}

func TestCollectionHandler_AddThenRemoveMember(t *testing.T) {
	c := newTestContainer(t)
	h := NewCollectionHandler(c, response.NewHandler(zap.NewNop()))
	resourceID := seedCompletedResource(t, c, "a resource to collect")

	createRR := httptest.NewRecorder()
	h.Create(createRR, httptest.NewRequest(http.MethodPost, "/collections", strings.NewReader(`{"name":"Reading List"}`)))
	var coll dto.CollectionDTO
	decodeBody(t, createRR, &coll)

	addReq := withURLParam(httptest.NewRequest(http.MethodPost, "/collections/"+coll.ID+"/members", strings.NewReader(`{"resource_id":"`+resourceID.String()+`"}`)), "id", coll.ID)
	addRR := httptest.NewRecorder()
	h.AddMember(addRR, addReq)
	require.Equal(t, http.StatusOK, addRR.Code)
	var withMember dto.CollectionDTO
	decodeBody(t, addRR, &withMember)
	assert.Contains(t, withMember.MemberIDs, resourceID.String())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", coll.ID)
	rctx.URLParams.Add("resourceID", resourceID.String())
	removeReq := httptest.NewRequest(http.MethodDelete, "/collections/"+coll.ID+"/members/"+resourceID.String(), nil)
	removeReq = removeReq.WithContext(context.WithValue(removeReq.Context(), chi.RouteCtxKey, rctx))
	removeRR := httptest.NewRecorder()
	h.RemoveMember(removeRR, removeReq)
	require.Equal(t, http.StatusOK, removeRR.Code)
	var withoutMember dto.CollectionDTO
	decodeBody(t, removeRR, &withoutMember)
	assert.NotContains(t, withoutMember.MemberIDs, resourceID.String())
}

func TestCollectionHandler_Delete(t *testing.T) {
	c := newTestContainer(t)
	h := NewCollectionHandler(c, response.NewHandler(zap.NewNop()))

	createRR := httptest.NewRecorder()
	h.Create(createRR, httptest.NewRequest(http.MethodPost, "/collections", strings.NewReader(`{"name":"Temp"}`)))
	var coll dto.CollectionDTO
	decodeBody(t, createRR, &coll)

	deleteReq := withURLParam(httptest.NewRequest(http.MethodDelete, "/collections/"+coll.ID, nil), "id", coll.ID)
	deleteRR := httptest.NewRecorder()
	h.Delete(deleteRR, deleteReq)
	assert.Equal(t, http.StatusNoContent, deleteRR.Code)
}
