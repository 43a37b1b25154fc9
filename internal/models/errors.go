package models

import "errors"

// ErrProductNotFound is returned by stores when no product has the requested id
var ErrProductNotFound = errors.New("product not found")
