package core

// admin.go implements the role-gated administrative operations. These are
// simple guarded setters and never touch the import algorithm itself.

import "context"

// Admin returns the current administrative actor.
func (e *Engine) Admin() Address {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.admin
}

func (e *Engine) requireAdmin(caller Address) error {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	if caller != e.admin {
		return unauthorized(caller)
	}
	return nil
}

// TransferAdmin hands the administrative role to next. Only the current admin
// may call it, and the new admin must be a non-zero address.
func (e *Engine) TransferAdmin(ctx context.Context, caller, next Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if next.IsZero() {
		return invalidf("new admin is the zero address")
	}

	e.adminMu.Lock()
	e.admin = next
	e.adminMu.Unlock()

	e.appendAudit(ctx, func(entry *AuditEntry) {
		entry.Action = ActionAdminTransfer
		entry.Reason = "admin transferred to " + next.String()
	}, caller)
	return nil
}

// ClearAdmitted removes a single origin tag from the admitted set so a
// mistaken admission can be imported again. Admin only.
func (e *Engine) ClearAdmitted(ctx context.Context, caller Address, tag string) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if tag == "" {
		return invalidf("origin tag is empty")
	}

	removed, err := e.store.Clear(ctx, e.reg.Identity(), tag)
	if err != nil {
		return internalErr("clear admitted tag", err)
	}
	if !removed {
		return invalidf("origin tag %q is not admitted", tag)
	}

	e.appendAudit(ctx, func(entry *AuditEntry) {
		entry.Action = ActionAdminClear
		entry.OriginTag = tag
		entry.Affected = 1
	}, caller)
	return nil
}

// Withdraw drains the engine's fee balance and returns the amount withdrawn.
// Admin only. Withdrawing a zero balance succeeds and returns 0.
func (e *Engine) Withdraw(ctx context.Context, caller Address) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}

	amount, err := e.store.WithdrawBalance(ctx)
	if err != nil {
		return 0, internalErr("withdraw balance", err)
	}

	e.appendAudit(ctx, func(entry *AuditEntry) {
		entry.Action = ActionWithdraw
		entry.Affected = int(amount)
	}, caller)
	return amount, nil
}

// Balance returns the engine's current withdrawable balance.
func (e *Engine) Balance(ctx context.Context) (uint64, error) {
	return e.store.Balance(ctx)
}
