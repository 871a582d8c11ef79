package extract

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lambertjamesd/z64audio/samplebank"
	"github.com/pkg/errors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Extract finalizes the coverage of every sample bank and writes out its
// manifest, blobs and samples. Banks are written one at a time.
func (e *Extractor) Extract() error {
	err := e.decoder.Check()

	if err != nil {
		return err
	}

	for _, bank := range e.Banks {
		if bank == nil {
			continue
		}

		err = e.extractBank(bank)

		if err != nil {
			return err
		}
	}

	return e.finalizeSoundfonts()
}

// finalizeSoundfonts gives every instrument, drum and sound effect the
// sample rate and base note it plays its sample with. Every sample bank
// must be finalized.
func (e *Extractor) finalizeSoundfonts() error {
	e.FontRecords = make([]*samplebank.FontRecord, 0, len(e.Soundfonts))

	for _, font := range e.Soundfonts {
		slots, err := e.soundfontBanks(font)

		if err != nil {
			return err
		}

		refs, err := font.Samples()

		if err != nil {
			return err
		}

		var record = samplebank.NewFontRecord(soundfontFileName(font.Index), font.Index)

		for _, ref := range refs {
			bank, err := slotBank(slots, font, ref)

			if err != nil {
				return err
			}

			err = record.Add(bank, ref)

			if err != nil {
				return err
			}
		}

		e.FontRecords = append(e.FontRecords, record)

		e.log.Debug("finalized soundfont", "index", font.Index, "samples", len(record.Samples))

		if !e.cfg.WriteRecord {
			continue
		}

		data, err := record.Marshal()

		if err != nil {
			return err
		}

		err = writeFile(e.assetPath("xml", "soundfonts", soundfontFileName(font.Index)+".xml"), data)

		if err != nil {
			return err
		}
	}

	return nil
}

// BankPath is the directory the samples of a bank are written to.
func (e *Extractor) BankPath(bank *samplebank.Bank) string {
	return e.assetPath("samples", bank.Name())
}

func (e *Extractor) extractBank(bank *samplebank.Bank) error {
	e.log.Debug("extract sample bank", "bank", bank.Index)

	err := bank.FinalizeCoverage(e.Banks)

	if err != nil {
		return err
	}

	var basePath = e.BankPath(bank)

	manifest, err := bank.Manifest(filepath.ToSlash(basePath))

	if err != nil {
		return err
	}

	err = writeFile(e.assetPath("samplebanks", recordFileName(bank.Index)), manifest)

	if err != nil {
		return err
	}

	if e.cfg.WriteRecord {
		err = e.writeRecord(bank)

		if err != nil {
			return err
		}
	}

	err = os.MkdirAll(filepath.Join(basePath, "aifc"), 0777)

	if err != nil {
		return errors.Wrap(err, "could not create sample directory")
	}

	for _, blob := range bank.Blobs() {
		var name = blob.Name() + ".bin"

		err = writeFile(filepath.Join(basePath, "aifc", name), blob.Data)

		if err != nil {
			return err
		}

		err = writeFile(filepath.Join(basePath, name), blob.Data)

		if err != nil {
			return err
		}
	}

	var start = time.Now()

	err = e.extractSamples(bank, basePath)

	if err != nil {
		return err
	}

	e.log.Debug("extracted sample bank", "bank", bank.Index, "took", time.Since(start).String())

	return nil
}

func (e *Extractor) writeRecord(bank *samplebank.Bank) error {
	record, err := bank.Record()

	if err != nil {
		return err
	}

	data, err := record.Marshal()

	if err != nil {
		return err
	}

	return writeFile(e.assetPath("xml", "samplebanks", recordFileName(bank.Index)), data)
}

type sampleJob struct {
	index  int
	sample *samplebank.ResolvedSample
}

// extractSamples encodes and decodes the samples of a bank on a pool of
// workers and blocks until every sample is done. The first error is
// returned once all workers have stopped.
func (e *Extractor) extractSamples(bank *samplebank.Bank, basePath string) error {
	var samples = bank.Samples()

	if len(samples) == 0 {
		return nil
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(e.Progress))
	bar := p.AddBar(int64(len(samples)),
		mpb.PrependDecorators(
			decor.Name(bank.Name()+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	var workers = e.cfg.Workers

	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan sampleJob, len(samples))
	results := make(chan error, len(samples))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- e.extractSample(basePath, job.index, job.sample)
			}
		}()
	}

	for i, sample := range samples {
		jobs <- sampleJob{i, sample}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error

	for err := range results {
		bar.Increment()

		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	p.Wait()

	return firstErr
}

func (e *Extractor) extractSample(basePath string, index int, sample *samplebank.ResolvedSample) error {
	var name = samplebank.SampleFileName(index)
	var aifcPath = filepath.Join(basePath, "aifc", name+".aifc")
	var wavPath = filepath.Join(basePath, name+sample.Extension()+".wav")

	file, err := os.Create(aifcPath)

	if err != nil {
		return errors.Wrap(err, "could not create aifc file")
	}

	err = sample.EncodeAIFC(file)

	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "could not write aifc file")
	}

	if err != nil {
		return errors.Wrap(err, aifcPath)
	}

	err = e.decoder.Decode(aifcPath, wavPath)

	if err != nil {
		return err
	}

	frames, err := checkWav(wavPath, sample.SampleRate)

	if err != nil {
		return err
	}

	e.log.Debug("extracted sample", "bank", sample.Bank, "index", index, "offset", sample.Start,
		"rate", sample.SampleRate, "note", sample.BaseNote.String(), "frames", frames)

	return nil
}
