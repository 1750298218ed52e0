/*
LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package memrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/runtime"
)

func TestLaunchStopList(t *testing.T) {
	ctx := context.Background()
	rt := New()

	task, err := rt.Launch(ctx, runtime.TaskSpec{VideoID: "v1", ChannelID: "c1"})
	require.NoError(t, err)
	assert.True(t, task.Running)
	assert.NotEmpty(t, task.Handle)

	list, err := rt.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v1", list[0].VideoID)

	require.NoError(t, rt.Stop(ctx, task.Handle))

	list, err = rt.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Running)
}

func TestStopUnknownHandle(t *testing.T) {
	rt := New()
	err := rt.Stop(context.Background(), "nope")
	assert.Error(t, err)
}
