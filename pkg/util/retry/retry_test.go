// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

func TestDo(t *testing.T) {
	ctx := context.Background()

	n := 0
	testFn := func() error {
		if n < 3 {
			n++
			return errors.New("some error")
		}
		return nil
	}

	err := Do(ctx, testFn, Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAttempts(t *testing.T) {
	ctx := context.Background()

	calls := 0
	testFn := func() error {
		calls++
		return fmt.Errorf("some error")
	}

	err := Do(ctx, testFn, Attempts(3), Sleep(time.Millisecond))
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestMaxSleepTime(t *testing.T) {
	ctx := context.Background()

	testFn := func() error {
		return fmt.Errorf("some error")
	}

	start := time.Now()
	err := Do(ctx, testFn, Attempts(3), Sleep(time.Millisecond), MaxSleepTime(2*time.Millisecond))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepKeepsMaxAboveInitial(t *testing.T) {
	c := newDefaultConfig()
	Sleep(5 * time.Second)(c)
	assert.Equal(t, 10*time.Second, c.maxSleepTime)

	MaxSleepTime(time.Second)(c)
	assert.Equal(t, 10*time.Second, c.maxSleepTime)
}

func TestBackOffSchedule(t *testing.T) {
	c := newDefaultConfig()
	Sleep(10 * time.Millisecond)(c)
	MaxSleepTime(30 * time.Millisecond)(c)

	bo := newBackOff(c)
	assert.Equal(t, 10*time.Millisecond, bo.NextBackOff())
	assert.Equal(t, 20*time.Millisecond, bo.NextBackOff())
	assert.Equal(t, 30*time.Millisecond, bo.NextBackOff())
	assert.Equal(t, 30*time.Millisecond, bo.NextBackOff())
}

func TestUnrecoverableError(t *testing.T) {
	ctx := context.Background()

	calls := 0
	testFn := func() error {
		calls++
		return Unrecoverable(errors.New("some error"))
	}

	err := Do(ctx, testFn, Attempts(3))
	assert.Error(t, err)
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, 1, calls)
}

func TestRetryErr(t *testing.T) {
	ctx := context.Background()

	calls := 0
	testFn := func() error {
		calls++
		return merr.WrapErrNoAccessor("Person", "secret")
	}

	err := Do(ctx, testFn, Attempts(5), Sleep(time.Millisecond), RetryErr(merr.IsRetryableErr))
	assert.ErrorIs(t, err, merr.ErrNoAccessor)
	assert.Equal(t, 1, calls)
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	testFn := func() error {
		return fmt.Errorf("some error")
	}

	err := Do(ctx, testFn, Attempts(100), Sleep(time.Second))
	assert.Error(t, err)
}
