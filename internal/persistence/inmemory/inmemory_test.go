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

package inmemory

import (
	"fmt"
	"testing"

	"github.com/trailofbits/sigstore-apis/internal/persistence"
	ptest "github.com/trailofbits/sigstore-apis/internal/persistence/testonly"
	"golang.org/x/sync/errgroup"
)

var nopClose = func() error { return nil }

func TestUpdate(t *testing.T) {
	ptest.TestUpdate(t, func() (persistence.StateStore, func() error) {
		return NewPersistence(), nopClose
	})
}

func TestUpdateConcurrent(t *testing.T) {
	p := NewPersistence()

	g := errgroup.Group{}
	treeID := "foo"

	for i := 0; i < 25; i++ {
		g.Go(func() error {
			return p.Update(t.Context(), treeID, func(current *persistence.ShardState) (*persistence.ShardState, error) {
				next := &persistence.ShardState{TreeSize: 1}
				if current != nil {
					next.TreeSize = current.TreeSize + 1
				}
				next.RootHash = fmt.Appendf(nil, "root %d", i)
				return next, nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		t.Error(err)
	}

	s, err := p.Latest(t.Context(), treeID)
	if err != nil {
		t.Fatal(err)
	}
	if s.TreeSize != 25 {
		t.Errorf("got size %d after 25 increments", s.TreeSize)
	}
}
