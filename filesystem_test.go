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

func setupFilesystemCache(t *testing.T) FilesystemCache {
	cfg := CachingConfig{
		ReapSleepMS: 600000,
		Filesystem:  FilesystemCacheConfig{CachePath: t.TempDir()},
	}
	return FilesystemCache{Config: cfg, Logger: log.NewNopLogger()}
}

func TestFilesystemCache_Connect(t *testing.T) {
	fc := setupFilesystemCache(t)

	// it should connect
	err := fc.Connect()
	if err != nil {
		t.Error(err)
	}
}

func TestFilesystemCache_Store(t *testing.T) {
	fc := setupFilesystemCache(t)

	err := fc.Connect()
	if err != nil {
		t.Error(err)
	}

	// it should store a value
	err = fc.Store("cacheKey", "data", time.Minute)
	if err != nil {
		t.Error(err)
	}
}

func TestFilesystemCache_Retrieve(t *testing.T) {
	fc := setupFilesystemCache(t)

	err := fc.Connect()
	if err != nil {
		t.Error(err)
	}

	err = fc.Store("cacheKey", "data", time.Minute)
	if err != nil {
		t.Error(err)
	}

	// it should retrieve a value
	data, err := fc.Retrieve("cacheKey")
	if err != nil {
		t.Error(err)
	}
	if data != "data" {
		t.Errorf("wanted \"%s\". got \"%s\"", "data", data)
	}
}

func TestFilesystemCache_RetrieveExpired(t *testing.T) {
	fc := setupFilesystemCache(t)

	err := fc.Connect()
	if err != nil {
		t.Error(err)
	}

	// fake an expired entry
	fc.Store("cacheKey", "data", -1*time.Second)

	// it should report a miss without waiting for the reaper
	if _, err := fc.Retrieve("cacheKey"); err == nil {
		t.Errorf("expected a cache miss for an expired key")
	}
}

func TestFilesystemCache_ReapOnce(t *testing.T) {
	fc := setupFilesystemCache(t)

	err := fc.Connect()
	if err != nil {
		t.Error(err)
	}

	// fake an expired entry
	fc.Store("cacheKey", "data", -1*time.Second)

	fc.ReapOnce()

	// it should remove the expired entry
	if _, err := fc.Retrieve("cacheKey"); err == nil {
		t.Errorf("expected expired entry to be reaped")
	}
}

func TestFilesystemCache_Close(t *testing.T) {
	fc := setupFilesystemCache(t)
	fc.Close()
}
