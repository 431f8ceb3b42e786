// Package logstream bridges asynchronous container output to synchronous
// line and bulk reads.
//
// The container runtime pushes frames into a Stream through the Handler
// callbacks; test code pulls text back out:
//
//	stream := logstream.New(logstream.WithName("db"), logstream.WithPrint(false))
//	if err := client.FollowLogs(ctx, id, stream); err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	stream.SetCapture(true)
//	if _, err := stream.WaitForText("ready to accept connections"); err != nil {
//	    return err
//	}
//	text, _ := stream.Captured()
//
// Raw reads (ReadLineRaw, ReadAllRaw) return bytes exactly as delivered,
// NUL bytes included. Text reads (ReadLine, ReadAll, Captured) drop NUL
// bytes, apply the stream's Filter and decode as UTF-8.
package logstream
