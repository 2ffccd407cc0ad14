// Copyright 2026 The Sigstore APIs Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/trailofbits/sigstore-apis/api"
)

// AsAPIError maps an error returned by Do or JSON onto the api error
// taxonomy. Errors which already are *api.Error are returned unchanged.
func AsAPIError(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	var ae *api.Error
	if errors.As(err, &ae) {
		return err
	}
	r := &api.Error{Op: op, Subject: subject, Cause: err}
	var se *StatusError
	var de *DecodeError
	switch {
	case errors.Is(err, context.Canceled):
		r.Err = context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		r.Err = context.DeadlineExceeded
	case errors.As(err, &se):
		r.Err = sentinelForStatus(se.StatusCode)
		r.Detail = se.Message()
		r.Cause = nil
	case errors.As(err, &de):
		r.Err = api.ErrInvalidResponse
	default:
		r.Err = api.ErrServiceUnavailable
	}
	return r
}

func sentinelForStatus(code int) error {
	switch code {
	case http.StatusNotFound:
		return api.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return api.ErrInvalidQuery
	case http.StatusConflict:
		return api.ErrAlreadyExists
	default:
		return api.ErrServiceUnavailable
	}
}
