/**
* Copyright 2024 The Leadscout Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package main

import (
	"testing"
	"time"

	"github.com/go-kit/kit/log"
)

func setupBoltDBCache(t *testing.T) BoltDBCache {
	cfg := CachingConfig{
		ReapSleepMS: 600000,
		BoltDB:      BoltDBCacheConfig{CachePath: t.TempDir(), Filename: "test.db", Bucket: "leadscout"},
	}
	return BoltDBCache{Config: cfg, Logger: log.NewNopLogger()}
}

func TestBoltDBCache_Connect(t *testing.T) {
	bc := setupBoltDBCache(t)

	// it should connect
	err := bc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer bc.Close()
}

func TestBoltDBCache_Store(t *testing.T) {
	bc := setupBoltDBCache(t)

	err := bc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer bc.Close()

	// it should store a value
	err = bc.Store("cacheKey", "data", time.Minute)
	if err != nil {
		t.Error(err)
	}
}

func TestBoltDBCache_Retrieve(t *testing.T) {
	bc := setupBoltDBCache(t)

	err := bc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer bc.Close()

	err = bc.Store("cacheKey", "data", time.Minute)
	if err != nil {
		t.Error(err)
	}

	// it should retrieve a value
	data, err := bc.Retrieve("cacheKey")
	if err != nil {
		t.Error(err)
	}
	if data != "data" {
		t.Errorf("wanted \"%s\". got \"%s\"", "data", data)
	}
}

func TestBoltDBCache_RetrieveExpired(t *testing.T) {
	bc := setupBoltDBCache(t)

	err := bc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer bc.Close()

	// fake an expired entry
	bc.Store("cacheKey", "data", -1*time.Second)

	// it should report a miss without waiting for the reaper
	if _, err := bc.Retrieve("cacheKey"); err == nil {
		t.Errorf("expected a cache miss for an expired key")
	}
}

func TestBoltDBCache_ReapOnce(t *testing.T) {
	bc := setupBoltDBCache(t)

	err := bc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer bc.Close()

	// fake an expired entry
	bc.Store("cacheKey", "data", -1*time.Second)

	bc.ReapOnce()

	// it should remove the expired entry
	if _, err := bc.retrieve("cacheKey.data"); err == nil {
		t.Errorf("expected expired entry to be reaped")
	}
}

func TestBoltDBCache_Close(t *testing.T) {
	bc := setupBoltDBCache(t)

	err := bc.Connect()
	if err != nil {
		t.Error(err)
	}

	// it should close
	err = bc.Close()
	if err != nil {
		t.Error(err)
	}
}
