package services

import "errors"

// ErrInvalidCredentials is returned by Authenticate for an unknown email,
// a wrong password or an inactive account alike.
var ErrInvalidCredentials = errors.New("unable to authenticate with given credentials")

// ErrImagesDisabled is returned by image uploads when no object storage
// backend is configured.
var ErrImagesDisabled = errors.New("image storage is not configured")
