// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/service"
	"github.com/jknm/novice/internal/testutil"
)

func TestMediaUploadFlow(t *testing.T) {
	s := testSetup(t)

	w := s.do(t, http.MethodPost, "/articles/drafts", nil, true)
	assertStatusCode(t, w, http.StatusCreated)
	var draft service.Article
	decodeData(t, w, &draft)

	data := testutil.PNG(t, 1000, 600)
	w = s.do(t, http.MethodPost, "/media/upload-url", UploadURLRequest{
		Filename:    "Vhod v jamo.PNG",
		ContentType: "image/png",
		Size:        int64(len(data)),
	}, true)
	assertStatusCode(t, w, http.StatusCreated)
	var upload service.UploadURL
	decodeData(t, w, &upload)
	require.NotEmpty(t, upload.URL)
	require.Positive(t, upload.MediaID)

	// Pending media stay hidden until the upload is confirmed.
	w = s.do(t, http.MethodGet, "/media/"+itoa(upload.MediaID), nil, true)
	assertStatusCode(t, w, http.StatusConflict)

	require.NoError(t, s.storage.Put(context.Background(), upload.Key, bytes.NewReader(data), int64(len(data)), "image/png"))

	w = s.do(t, http.MethodPost, "/media/"+itoa(upload.MediaID)+"/confirm", ConfirmUploadRequest{ArticleID: draft.ID}, true)
	assertStatusCode(t, w, http.StatusAccepted)
	var confirmed service.ConfirmResult
	decodeData(t, w, &confirmed)
	assert.Equal(t, model.UploadStatusProcessing, confirmed.Status)

	w = s.do(t, http.MethodPost, "/media/"+itoa(upload.MediaID)+"/confirm", ConfirmUploadRequest{ArticleID: draft.ID}, true)
	assertStatusCode(t, w, http.StatusConflict)

	s.jobs.runAll(t)

	w = s.do(t, http.MethodGet, "/media/"+itoa(upload.MediaID), nil, true)
	assertStatusCode(t, w, http.StatusOK)
	var media service.Media
	decodeData(t, w, &media)
	assert.Equal(t, model.UploadStatusCompleted, media.UploadStatus)
	assert.Len(t, media.Variants, 4)
	assert.NotEmpty(t, media.BlurPlaceholder)

	w = s.do(t, http.MethodGet, "/articles/"+itoa(draft.ID)+"/media", nil, false)
	assertStatusCode(t, w, http.StatusOK)
	var gallery []service.Media
	decodeData(t, w, &gallery)
	require.Len(t, gallery, 1)
	assert.Equal(t, upload.MediaID, gallery[0].ID)

	// Only failed media can be sent back through the pipeline.
	w = s.do(t, http.MethodPost, "/media/"+itoa(upload.MediaID)+"/reprocess", nil, true)
	assertStatusCode(t, w, http.StatusConflict)
}

func TestCreateUploadURLValidation(t *testing.T) {
	s := testSetup(t)

	w := s.do(t, http.MethodPost, "/media/upload-url", UploadURLRequest{ContentType: "image/png"}, true)
	assertStatusCode(t, w, http.StatusBadRequest)
	resp := assertErrorResponse(t, w, "bad_request")
	assert.Equal(t, "required", resp.Error.Details["filename"])
	assert.Equal(t, "must be positive", resp.Error.Details["size"])
}

func TestConfirmUploadValidation(t *testing.T) {
	s := testSetup(t)

	w := s.do(t, http.MethodPost, "/media/1/confirm", ConfirmUploadRequest{}, true)
	assertStatusCode(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodPost, "/media/42/confirm", ConfirmUploadRequest{ArticleID: 1}, true)
	assertStatusCode(t, w, http.StatusNotFound)
}
