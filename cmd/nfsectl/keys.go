package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Rental-api/pkg/tokencrypt"
)

var genKeyCmd = &cobra.Command{
	Use:   "gen-key",
	Short: "Genera una FISCAL_ENCRYPTION_KEY nueva (64 caracteres hex)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := tokencrypt.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var encryptTokenCmd = &cobra.Command{
	Use:   "encrypt-token <token>",
	Short: "Cifra el token de Focus NFe para guardarlo en la configuración fiscal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cipherFromFlags(cmd)
		if err != nil {
			return err
		}
		out, err := c.Encrypt(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var decryptCheckCmd = &cobra.Command{
	Use:   "decrypt-check <iv_hex:ciphertext_hex>",
	Short: "Verifica que un token guardado se descifra con la clave actual",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tokencrypt.IsEncrypted(args[0]) {
			return errors.New("el valor no tiene el formato iv_hex:ciphertext_hex")
		}
		c, err := cipherFromFlags(cmd)
		if err != nil {
			return err
		}
		plain, err := c.Decrypt(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d caracteres)\n", maskToken(plain), len(plain))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{encryptTokenCmd, decryptCheckCmd} {
		c.Flags().String("key", "", "clave hex; por defecto FISCAL_ENCRYPTION_KEY")
	}
	rootCmd.AddCommand(genKeyCmd, encryptTokenCmd, decryptCheckCmd)
}

func cipherFromFlags(cmd *cobra.Command) (*tokencrypt.Cipher, error) {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return nil, err
		}
		key = cfg.Fiscal.EncryptionKey
	}
	return tokencrypt.New(key)
}

// maskToken deja visibles solo los primeros 4 caracteres.
func maskToken(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:4]) + "****"
}
