// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"fmt"

	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/util"
)

// Every object of a media record lives under its UUID, so the keys of a
// re-run pipeline overwrite the previous run deterministically.

// OriginalKey returns the key the client uploads the raw file to.
func OriginalKey(mediaUUID, filename string) string {
	return fmt.Sprintf("%s/original.%s", mediaUUID, util.FileExtension(filename, "bin"))
}

// VariantKey returns the key of one resized variant.
func VariantKey(mediaUUID string, width int, format model.VariantFormat) string {
	return fmt.Sprintf("%s/%dw.%s", mediaUUID, width, format)
}

// BlurKey returns the key of the uploaded blur placeholder.
func BlurKey(mediaUUID string) string {
	return mediaUUID + "/blur.jpg"
}
