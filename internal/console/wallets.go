package console

import (
	"context"
	"strings"
	"sync"

	"toll-console/internal/async"
	"toll-console/internal/tollapi"
)

// walletsPage looks up one user's wallet and monthly bills. Both requests
// are issued together and settle independently.
type walletsPage struct {
	*base
	wallet *async.Request[tollapi.Wallet]
	bills  *listView[tollapi.Bill]

	mu     sync.Mutex
	key    string
	keyErr string
}

type WalletView struct {
	WalletID       int64  `json:"walletId"`
	Balance        string `json:"balance"`
	MinimumBalance string `json:"minimumBalance"`
	Negative       bool   `json:"negative"`
	InDeficit      bool   `json:"inDeficit"`
	Status         string `json:"status"`
	Alert          string `json:"alert,omitempty"`
}

type WalletState struct {
	Status  async.Status `json:"status"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
	Wallet  *WalletView  `json:"wallet,omitempty"`
}

type WalletsState struct {
	Key    string      `json:"key,omitempty"`
	Wallet WalletState `json:"wallet"`
	Bills  ListState   `json:"bills"`
}

const msgWalletFailed = "Failed to fetch wallet details. User may not have a wallet."

func newWalletsPage(b *base) Page {
	p := &walletsPage{base: b}
	p.wallet = async.NewRequest[tollapi.Wallet](b.scope, b.notify)

	p.bills = newListView[tollapi.Bill](b, "bills", nil)
	p.bills.columns = []string{"Bill ID", "Bill Month", "Total Distance (km)", "Total Amount", "Due Date", "Status"}
	p.bills.row = func(bl tollapi.Bill) []string {
		return []string{
			itoa(bl.BillID), bl.BillMonth, fixed(bl.TotalDistance, 2),
			rupees(bl.TotalAmount), displayDate(bl.DueDate), string(bl.Status),
		}
	}
	p.bills.errMsg = "Failed to fetch bills. No bills found for this user."
	p.bills.emptyMsg = "No bills found for this user."
	p.bills.retry = false
	return p
}

func (p *walletsPage) Mount() {}

func (p *walletsPage) Lookup(key string) {
	key = strings.TrimSpace(key)
	p.mu.Lock()
	p.key = key
	if key == "" {
		p.keyErr = "Please enter a User ID"
	} else {
		p.keyErr = ""
	}
	p.mu.Unlock()

	if key == "" {
		p.wallet.Reset()
		p.bills.reset()
		return
	}
	p.wallet.Run(func(ctx context.Context) (tollapi.Wallet, error) {
		return p.api().UserWallet(ctx, key)
	}, func(st async.State[tollapi.Wallet]) {
		if st.Err != nil {
			p.log.Error("fetch failed", "what", "wallet", "err", st.Err)
		}
	})
	p.bills.run(func(ctx context.Context) ([]tollapi.Bill, error) {
		return p.api().UserBills(ctx, key)
	})
}

func (p *walletsPage) Snapshot() any {
	p.mu.Lock()
	key, keyErr := p.key, p.keyErr
	p.mu.Unlock()

	st := p.wallet.State()
	ws := WalletState{Status: st.Status, Loading: st.Status == async.Pending}
	switch {
	case keyErr != "":
		ws.Error = keyErr
	case st.Status == async.Failed:
		ws.Error = msgWalletFailed
	case st.Status == async.Resolved:
		ws.Wallet = walletView(st.Value)
	}
	return WalletsState{Key: key, Wallet: ws, Bills: p.bills.state()}
}

func walletView(w tollapi.Wallet) *WalletView {
	v := &WalletView{
		WalletID:       w.WalletID,
		Balance:        rupees(w.Balance),
		MinimumBalance: rupees(w.MinimumBalance),
		Negative:       w.Balance < 0,
		InDeficit:      w.InDeficit(),
		Status:         "Healthy",
	}
	if v.InDeficit {
		v.Status = "In Deficit"
	}
	if v.Negative {
		v.Alert = "Wallet has negative balance. Please recharge!"
	}
	return v
}
