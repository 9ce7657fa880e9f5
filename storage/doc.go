// Copyright 2025 Civicdata Labs
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


// Package storage defines the relational storage boundary of the
// pipeline.
//
// A Store hands out transactional Sessions; all table mutation happens
// inside one RunInTransaction call so a failed run rolls back completely
// and readers never observe a half-loaded schema. The vector literal
// codec in this package fixes the textual encoding used when writing
// embeddings through the SQL boundary.
package storage
