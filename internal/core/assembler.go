// ABOUTME: GroupAssembler stamps identity and ordering onto validated chunks
// ABOUTME: Ids are assigned once here and never derived later
package core

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/jerbio/BigDataTiler/internal/models"
)

// IDFunc builds the id of the chunk at splitIndex for a group
type IDFunc func(meta models.LogMeta, splitIndex int) string

// GroupAssembler turns an ordered list of payloads into a chunk group
type GroupAssembler struct {
	newID IDFunc
}

// NewGroupAssembler creates an assembler. A nil idFunc uses GenerateLogID.
func NewGroupAssembler(idFunc IDFunc) *GroupAssembler {
	if idFunc == nil {
		idFunc = GenerateLogID
	}
	return &GroupAssembler{newID: idFunc}
}

// Assemble returns one record per payload, in order. The first record owns
// the group; every other record points at it.
func (a *GroupAssembler) Assemble(meta models.LogMeta, payloads [][]byte, contentHash string) []*models.LogChange {
	if len(payloads) == 0 {
		return nil
	}

	ownerID := a.newID(meta, 0)
	group := make([]*models.LogChange, len(payloads))

	for i, payload := range payloads {
		log := models.NewLogChange(meta)
		log.ZippedLog = payload
		log.SplitIndex = i
		log.TotalSplits = len(payloads)
		log.ContentHash = contentHash

		if i == 0 {
			log.ID = ownerID
		} else {
			parent := ownerID
			log.ID = a.newID(meta, i)
			log.ParentLogID = &parent
		}
		group[i] = log
	}

	return group
}

// GenerateLogID returns <user>_<trigger>_<uuid>_<jsmillis>, with a
// _split<n> suffix for every chunk after the first. Version 7 uuids keep
// ids time-ordered.
func GenerateLogID(meta models.LogMeta, splitIndex int) string {
	user := meta.UserID
	if strings.TrimSpace(user) == "" {
		user = models.NoUserID
	}
	trigger := meta.Trigger
	if trigger == "" {
		trigger = models.NoTrigger
	}

	id := user + "_" + trigger + "_" + uuid.Must(uuid.NewV7()).String() + "_" +
		strconv.FormatUint(models.JsMillis(meta.TimeOfCreation), 10)
	if splitIndex > 0 {
		id += "_split" + strconv.Itoa(splitIndex)
	}
	return id
}

// ContentHash returns the hex BLAKE3 digest of text
func ContentHash(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
