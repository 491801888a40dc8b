package controllers

import (
	"github.com/AndreasMilants/gophotos/internal/pkg/processor"
)

// The active processor and lifecycle service are injected at startup; which
// PhotoProcessor implementation arrives here depends on the configured mode.
var (
	photoProcessor processor.PhotoProcessor
	photoService   *processor.Service
)

// SetPhotoProcessor wires the mode-specific processor into the handlers.
func SetPhotoProcessor(p processor.PhotoProcessor) {
	photoProcessor = p
}

// SetPhotoService wires the shared lifecycle service into the handlers.
func SetPhotoService(s *processor.Service) {
	photoService = s
}
