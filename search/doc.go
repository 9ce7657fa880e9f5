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


// Package search answers natural-language queries over loaded tenders.
//
// The Searcher embeds the query text with the same kind of embedding
// function the load pipeline used and asks the store for the nearest
// stored tender vectors by Euclidean distance. Queries whose embedding
// width differs from the stored column are refused: that mismatch means
// the query-side model is not the load-side one.
package search
