package storage

import (
	"encoding/json"
	"errors"

	"critters/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGeneration(rec model.GenerationRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeGeneration(data []byte) (model.GenerationRecord, error) {
	var rec model.GenerationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.GenerationRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.GenerationRecord{}, err
	}
	return rec, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
