package wire

// Flag bits of the legacy write messages.
const (
	insertContinueOnError int32 = 1 << 0

	updateUpsert int32 = 1 << 0
	updateMulti  int32 = 1 << 1

	deleteJustOne int32 = 1 << 0
)

// InsertOptions are the decoded flags of a legacy insert.
type InsertOptions struct {
	ContinueOnError bool
}

// DecodeInsertFlags decodes the flag word that leads a legacy insert body.
func DecodeInsertFlags(flags int32) InsertOptions {
	return InsertOptions{ContinueOnError: flags&insertContinueOnError != 0}
}

// Ordered is the batch ordering implied by the flags.
func (o InsertOptions) Ordered() bool {
	return !o.ContinueOnError
}

func (o InsertOptions) Bits() int32 {
	var flags int32
	if o.ContinueOnError {
		flags |= insertContinueOnError
	}
	return flags
}

// UpdateOptions are the decoded flags of a legacy update.
type UpdateOptions struct {
	Upsert bool
	Multi  bool
}

func DecodeUpdateFlags(flags int32) UpdateOptions {
	return UpdateOptions{
		Upsert: flags&updateUpsert != 0,
		Multi:  flags&updateMulti != 0,
	}
}

func (o UpdateOptions) Bits() int32 {
	var flags int32
	if o.Upsert {
		flags |= updateUpsert
	}
	if o.Multi {
		flags |= updateMulti
	}
	return flags
}

// DeleteOptions are the decoded flags of a legacy delete.
type DeleteOptions struct {
	JustOne bool
}

func DecodeDeleteFlags(flags int32) DeleteOptions {
	return DeleteOptions{JustOne: flags&deleteJustOne != 0}
}

// Multi reports whether every matching document is removed.
func (o DeleteOptions) Multi() bool {
	return !o.JustOne
}

func (o DeleteOptions) Bits() int32 {
	var flags int32
	if o.JustOne {
		flags |= deleteJustOne
	}
	return flags
}
