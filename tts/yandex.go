package tts

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"

	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
)

const (
	YandexTTSEndpoint = "tts.api.cloud.yandex.net:443"
)

type YandexConfig struct {
	ApiKey   string
	FolderID string
}

type YandexTTSClient struct {
	client   tts.SynthesizerClient
	conn     *grpc.ClientConn
	apiKey   string
	folderID string
}

// Ensure YandexTTSClient implements Synthesizer interface
var _ Synthesizer = (*YandexTTSClient)(nil)

func GetDefaultSynthesisOptions() SynthesisOptions {
	return SynthesisOptions{
		Voice:                 "john",
		Speed:                 1.0,
		Volume:                0.0,
		Model:                 "general",
		Format:                tts.ContainerAudio_WAV,
		LoudnessNormalization: tts.UtteranceSynthesisRequest_LUFS,
	}
}

func NewYandexTTSClient(config YandexConfig) (*YandexTTSClient, error) {
	creds := credentials.NewTLS(&tls.Config{})

	// The connection is lazy: an unreachable endpoint surfaces on first synthesis
	conn, err := grpc.NewClient(YandexTTSEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS service: %w", err)
	}

	return &YandexTTSClient{
		client:   tts.NewSynthesizerClient(conn),
		conn:     conn,
		apiKey:   config.ApiKey,
		folderID: config.FolderID,
	}, nil
}

func (c *YandexTTSClient) SynthesizeToStreamWithContext(ctx context.Context, text string, options SynthesisOptions, audioData chan<- []byte) error {
	defer close(audioData)

	ctx = metadata.AppendToOutgoingContext(ctx,
		"authorization", "Api-Key "+c.apiKey,
		"x-folder-id", c.folderID,
	)

	stream, err := c.client.UtteranceSynthesis(ctx, c.buildRequest(text, options))
	if err != nil {
		return fmt.Errorf("failed to start synthesis: %w", err)
	}

	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to receive audio data: %w", err)
		}

		if audioChunk := resp.GetAudioChunk(); audioChunk != nil {
			select {
			case audioData <- audioChunk.GetData():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *YandexTTSClient) buildRequest(text string, options SynthesisOptions) *tts.UtteranceSynthesisRequest {
	req := &tts.UtteranceSynthesisRequest{}
	req.SetModel(options.Model)
	req.SetText(text)

	voiceHint := &tts.Hints{}
	voiceHint.SetVoice(options.Voice)

	speedHint := &tts.Hints{}
	speedHint.SetSpeed(options.Speed)

	volumeHint := &tts.Hints{}
	volumeHint.SetVolume(options.Volume)

	req.SetHints([]*tts.Hints{voiceHint, speedHint, volumeHint})

	audioSpec := &tts.AudioFormatOptions{}
	containerAudio := &tts.ContainerAudio{}
	if format, ok := options.Format.(tts.ContainerAudio_ContainerAudioType); ok {
		containerAudio.SetContainerAudioType(format)
	} else {
		containerAudio.SetContainerAudioType(tts.ContainerAudio_WAV)
	}
	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)

	if normalization, ok := options.LoudnessNormalization.(tts.UtteranceSynthesisRequest_LoudnessNormalizationType); ok {
		req.SetLoudnessNormalizationType(normalization)
	} else {
		req.SetLoudnessNormalizationType(tts.UtteranceSynthesisRequest_LUFS)
	}

	return req
}

func (c *YandexTTSClient) Close() error {
	return c.conn.Close()
}
