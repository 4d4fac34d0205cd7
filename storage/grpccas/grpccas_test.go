package grpccas

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"acdc.dev/acdc/acdc"
	"acdc.dev/acdc/codec"
	"acdc.dev/acdc/storage"
	"acdc.dev/acdc/storage/localfs"
)

func dialTestServer(t *testing.T, cas storage.CAS) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterCASServer(srv, &Server{CAS: cas})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewCASClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCCASLocalFSRoundTrip(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	client := dialTestServer(t, cas)

	payload := []byte("hello grpccas")
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected defined CID")
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestGRPCCASBlockHydration(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	client := dialTestServer(t, cas)

	m := codec.NewMap()
	m.Set("role", "admin")
	block, err := acdc.NewPublic(m)
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}

	id, err := storage.PutBlock(client, block)
	if err != nil {
		t.Fatalf("PutBlock: %v", err)
	}
	got, err := storage.FetchBlock(client, id)
	if err != nil {
		t.Fatalf("FetchBlock: %v", err)
	}
	if !got.SAID().Equal(block.SAID()) {
		t.Fatalf("hydrated block digest mismatch")
	}
}
