/*
LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package notify

import "errors"

// Option is a functional option supplied to Notifier.Init.
type Option func(*Notifier) error

// Lookup returns the extra recipients for a given subject id and
// notification kind, on top of any static recipients.
type Lookup func(id string, kind Kind) []string

// WithSender sets the sender email address.
func WithSender(sender string) Option {
	return func(n *Notifier) error {
		n.sender = sender
		return nil
	}
}

// WithRecipient sets a single static recipient email address.
func WithRecipient(recipient string) Option {
	return func(n *Notifier) error {
		n.recipients = []string{recipient}
		return nil
	}
}

// WithRecipients sets the static recipient email addresses.
func WithRecipients(recipients []string) Option {
	return func(n *Notifier) error {
		n.recipients = recipients
		return nil
	}
}

// WithRecipientLookup sets a function that returns additional
// recipients given a subject id and notification kind.
func WithRecipientLookup(lookup Lookup) Option {
	return func(n *Notifier) error {
		n.lookup = lookup
		return nil
	}
}

// WithFilter restricts Notify to only the given kinds. Calling it more
// than once is additive. Passing no kinds clears the filter, allowing
// every kind again.
func WithFilter(kinds ...Kind) Option {
	return func(n *Notifier) error {
		if len(kinds) == 0 {
			n.filters = nil
			return nil
		}
		if n.filters == nil {
			n.filters = make(map[Kind]bool)
		}
		for _, k := range kinds {
			n.filters[k] = true
		}
		return nil
	}
}

// WithStore applies a TimeStore for notification throttling.
func WithStore(store TimeStore) Option {
	return func(n *Notifier) error {
		n.store = store
		return nil
	}
}

// WithSecrets applies MailJet credentials directly, bypassing
// gauth.GetSecrets — used by tests and by callers that already hold
// the secrets map.
func WithSecrets(secrets map[string]string) Option {
	return func(n *Notifier) error {
		var ok bool
		n.publicKey, ok = secrets["mailjetPublicKey"]
		if !ok {
			return errors.New("mailjetPublicKey secret not found")
		}
		n.privateKey, ok = secrets["mailjetPrivateKey"]
		if !ok {
			return errors.New("mailjetPrivateKey secret not found")
		}
		return nil
	}
}
