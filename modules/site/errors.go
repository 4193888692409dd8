package site

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid site configuration")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrContentNotService = errors.New("content.service is not a *content.Service")
	ErrAuthNotService    = errors.New("auth service is not an *auth.Service")
	ErrRouterNotChi      = errors.New("chi.router is not a chi.Router")
)
