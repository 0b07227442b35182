/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package timerange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rancher-sandbox/loadmetrics/pkg/timerange"
)

func TestContainsInstant(t *testing.T) {
	t.Parallel()

	r := timerange.FromExtent(100, 200)
	assert.True(t, r.ContainsInstant(100))
	assert.True(t, r.ContainsInstant(150))
	assert.True(t, r.ContainsInstant(200))
	assert.False(t, r.ContainsInstant(99.999))
	assert.False(t, r.ContainsInstant(200.001))
}

func TestIntersects(t *testing.T) {
	t.Parallel()

	r := timerange.FromExtent(100, 200)
	assert.True(t, r.Intersects(timerange.FromExtent(150, 300)))
	assert.True(t, r.Intersects(timerange.FromExtent(0, 100)), "boundary touch counts")
	assert.True(t, r.Intersects(timerange.FromExtent(200, 250)), "boundary touch counts")
	assert.False(t, r.Intersects(timerange.FromExtent(200.5, 300)))
	assert.False(t, r.Intersects(timerange.FromExtent(0, 99)))
}

func TestIntersection(t *testing.T) {
	t.Parallel()

	r := timerange.FromExtent(100, 200)

	overlap, ok := r.Intersection(timerange.FromExtent(150, 300))
	assert.True(t, ok)
	assert.Equal(t, timerange.FromExtent(150, 200), overlap)
	assert.Equal(t, 50.0, overlap.Duration())

	touch, ok := r.Intersection(timerange.FromExtent(200, 300))
	assert.True(t, ok)
	assert.Equal(t, 0.0, touch.Duration())

	_, ok = r.Intersection(timerange.FromExtent(300, 400))
	assert.False(t, ok)
}
