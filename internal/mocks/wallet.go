// Code generated manually for testing. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/luxfi/dotcli/pkg/wallet"
	"github.com/stretchr/testify/mock"
)

// Signer is a mock implementation of wallet.Signer
type Signer struct {
	mock.Mock
}

func (m *Signer) SignPayload(ctx context.Context, address string, payload []byte) (wallet.Signature, error) {
	args := m.Called(ctx, address, payload)
	return args.Get(0).(wallet.Signature), args.Error(1)
}

// WalletConnector is a mock of the connect step of wallet.Connector
type WalletConnector struct {
	mock.Mock
}

func (m *WalletConnector) Connect(ctx context.Context, appName string) (*wallet.Connection, error) {
	args := m.Called(ctx, appName)
	conn, _ := args.Get(0).(*wallet.Connection)
	return conn, args.Error(1)
}
