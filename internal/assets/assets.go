// Package assets provides the fungible multi-asset accounting primitive the
// ledger consumes: per-(holder, asset id) balances, approval-for-all
// operators, and a transfer notification hook for contract-style recipients.
package assets

import "context"

// ReceiveAck is the acknowledgement a registered receiver must return for a
// transfer to be accepted as safe.
const ReceiveAck = "assets.received"

// Receiver is the notification hook invoked when assets move to a
// registered contract recipient. Returning anything but ReceiveAck rejects
// the transfer.
type Receiver interface {
	OnAssetsReceived(ctx context.Context, operator, from string, assetID, amount uint64) string
}
