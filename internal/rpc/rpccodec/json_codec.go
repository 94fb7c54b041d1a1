// Copyright 2021 NetEase Inc.
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

// Package rpccodec is shared grpc plumbing for the three metadata-plane
// wire clients (MDS, metaserver, space). Rather than generate protobuf
// stubs for a from-scratch metaserver protocol, request/response envelopes
// are plain JSON-tagged Go structs carried over grpc.ClientConn via a
// custom encoding.Codec passed as a per-call ForceCodec option. This keeps
// the transport (dialing, keepalive, connection state, deadlines) on real
// grpc machinery while leaving the payload human-inspectable.
package rpccodec

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Codec implements google.golang.org/grpc/encoding.Codec (the subset grpc
// needs: Marshal, Unmarshal, Name) using encoding/json instead of protobuf.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (Codec) Name() string { return "json" }

// CallOption returns the per-call option that routes a grpc.ClientConn.Invoke
// through Codec instead of the connection's default (protobuf) codec.
func CallOption() grpc.CallOption { return grpc.ForceCodec(Codec{}) }

// Dial opens a grpc.ClientConn to target with insecure transport credentials
// suitable for same-datacenter metadata-plane RPCs, matching the teacher's
// own use of plaintext intra-cluster connections for its backing stores.
// Unary calls whose context has no deadline are bounded by DefaultTimeout.
func Dial(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(
		target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(CallOption()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			if _, ok := ctx.Deadline(); !ok {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
				defer cancel()
			}
			return invoker(ctx, method, req, reply, cc, opts...)
		}),
	)
}

// DefaultTimeout bounds a single backend RPC when the caller's context
// carries no deadline of its own (§5 "backend RPCs carry their own
// timeouts").
const DefaultTimeout = 10 * time.Second
