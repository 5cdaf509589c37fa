package restapi

import "github.com/pkg/errors"

var ErrInvalidID = errors.New("invalid article id")
var ErrInvalidPage = errors.New("limit and offset must be non-negative integers")
