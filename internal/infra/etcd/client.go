package etcd

import (
	"context"
	"errors"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// NewClient connects to etcd and checks that the first endpoint answers
// within timeout, so a wrong storage.etcd_endpoints fails at startup.
func NewClient(endpoints []string, timeout time.Duration) (*clientv3.Client, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("no etcd endpoints configured")
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := cli.Status(ctx, endpoints[0]); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("etcd status %s: %w", endpoints[0], err)
	}
	return cli, nil
}
