// Package jobs submits jobs whose arguments are described by schema text
// published per runner method.
//
// A runner publishes a MethodProtoMap. The Client encodes a value tree
// against the selected method's args schema, rejects values that do not
// validate, and hands the bytes to an injected Transport:
//
//	client, err := jobs.NewClient(transport, jobs.WithLogger(logger))
//	res, err := client.Enqueue(ctx, methods, jobs.EnqueueRequest{WorkerID: "w1"}, args)
//
// RetryArgs and DescribeResult turn stored argument and output bytes back
// into value trees and display values.
package jobs
