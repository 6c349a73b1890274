// Package discovery enumerates every pair registered in a Uniswap-v2 style
// factory and resolves each into a table.PairRecord.
//
// For each index the pipeline runs three dependent stages:
//
//  1. allPairs(index) on the factory yields the pair address
//  2. name, token0 and token1 on the pair, concurrently
//  3. name on both tokens, concurrently
//
// Indices are queued on a batch.Executor; every full batch runs concurrently
// and its records are appended to the result table in index order.
//
// Stage 2 and 3 failures degrade the affected field to contract.NotFound.
// Factory failures (allPairsLength, allPairs) abort the run; rows appended
// by earlier batches are kept.
package discovery
