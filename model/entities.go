/*
DESCRIPTION
  Entity type registrations.

AUTHORS
  Alan Noble <alan@ausocean.org>
  Scott Barnard <scott@ausocean.org>

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

package model

import "github.com/chatwatch/cloud/store"

// RegisterEntities registers every model type's zero-value constructor
// with the store package, so that generic tooling (store/memstore's
// GetAll, clouddatastore's cache invalidation on delete) can
// instantiate the right concrete type for a given kind string. Must be
// called once by every binary's main before using a Store.
func RegisterEntities() {
	store.RegisterEntity(typeChannel, func() store.Entity { return new(Channel) })
	store.RegisterEntity(typeBroadcast, func() store.Entity { return new(Broadcast) })
	store.RegisterEntity(typeWorkerTask, func() store.Entity { return new(WorkerTask) })
	store.RegisterEntity(typeMessage, func() store.Entity { return new(Message) })
	store.RegisterEntity(typeNotifyTimestamp, func() store.Entity { return new(NotifyTimestamp) })
}
