// Package policy holds the authorization decisions of the system as pure
// functions over (actor, resource). No function here performs I/O; callers
// load the resource first and short-circuit on a false result before any
// mutation or provider call.
package policy

import "github.com/shiftnotes/apiserver/types"

// CanReadUsers allows any authenticated actor to list accounts.
func CanReadUsers(actor types.Actor) bool {
	return actor.ID > 0
}

// CanCreateUser restricts account creation to admins.
func CanCreateUser(actor types.Actor) bool {
	return actor.IsAdmin()
}

// CanEditUser allows a user to edit their own profile, and admins to edit
// anyone. Role changes additionally require CanChangeRole.
func CanEditUser(actor types.Actor, target types.User) bool {
	return actor.ID == target.ID || actor.IsAdmin()
}

// CanChangeRole restricts role changes to admins, including on the actor's
// own account.
func CanChangeRole(actor types.Actor) bool {
	return actor.IsAdmin()
}

// CanDeleteUser allows admins to delete accounts other than their own.
func CanDeleteUser(actor types.Actor, target types.User) bool {
	return actor.IsAdmin() && actor.ID != target.ID
}

// CanEditNote allows the note's owner and admins to mutate it.
func CanEditNote(actor types.Actor, note types.Note) bool {
	return ownerOrAdmin(actor, note.OwnerID)
}

// CanDeleteNote follows the same rule as CanEditNote.
func CanDeleteNote(actor types.Actor, note types.Note) bool {
	return ownerOrAdmin(actor, note.OwnerID)
}

// CanAttachToNote follows the same rule as CanEditNote.
func CanAttachToNote(actor types.Actor, note types.Note) bool {
	return ownerOrAdmin(actor, note.OwnerID)
}

// CanDownloadFile gates downloads on the attachment's parent note.
func CanDownloadFile(actor types.Actor, note types.Note) bool {
	return ownerOrAdmin(actor, note.OwnerID)
}

// CanDeleteFile gates attachment deletion on the attachment's parent note.
func CanDeleteFile(actor types.Actor, note types.Note) bool {
	return ownerOrAdmin(actor, note.OwnerID)
}

func ownerOrAdmin(actor types.Actor, ownerID int) bool {
	if actor.IsAdmin() {
		return true
	}
	// An ownerID of zero means the owning account was removed; only
	// admins may touch such notes.
	return ownerID != 0 && actor.ID == ownerID
}
